package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFixture creates an input dir with BAM stand-ins and a matching
// config, returning the config path.
func writeFixture(t *testing.T, bamCount int) string {
	t.Helper()
	root := t.TempDir()
	inDir := filepath.Join(root, "bams")
	if err := os.MkdirAll(inDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < bamCount; i++ {
		path := filepath.Join(inDir, fmt.Sprintf("s%02d.bam", i))
		if err := os.WriteFile(path, []byte("bam"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	yaml := fmt.Sprintf(`
sbatch:
  job_name: cli-test
  partition: general
  time: "04:00:00"
  nodes: 1
  ntasks_per_node: 1
  cpus_per_task: 2
  mem: "2G"
  output: %[1]s/log/%%x-%%A_%%a.out
  error: %[1]s/log/%%x-%%A_%%a.err
  mail_user: ops@example.org
  mail_type: FAIL
  max_concurrent: 10
  max_queue: 50
workflow:
  bin_size: 500000
  my_in_dir: %[2]s
  my_out_dir: %[1]s/results
  my_tmp_dir: %[1]s/tmp
  sambamba: sambamba
  readCounter: readCounter
  Rscript: Rscript
  ichorCNA_script: /opt/ichorCNA/scripts/runIchorCNA.R
  readcounter_chrs: "chr1"
  readcounter_quality: 20
ichorCNA:
  paths:
    gc_file: /refs/gc.wig
    map_file: /refs/map.wig
    cent_file: /refs/cent.txt
    PON_file: /refs/pon.rds
  parameters:
    ploidy: "c(2)"
    normal: "c(0.5)"
    maxCN: 5
    includeHOMD: false
    chrs: "c(1:22)"
    chrTrain: "c(1:22)"
    chrNormalize: "c(1:22)"
    estimateNormal: true
    estimatePloidy: true
    estimateScPrevalence: false
    scStates: "c(1,3)"
    txnE: 0.9999
    txnStrength: 10000
    genomeStyle: UCSC
    genomeBuild: hg38
    plotFileType: pdf
`, root, inDir)

	configPath := filepath.Join(root, "cli-test.yaml")
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGenerate_WritesScript(t *testing.T) {
	configPath := writeFixture(t, 3)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	out, err := runCommand(t, "generate", configPath, "--db", dbPath)
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "3 tasks") {
		t.Errorf("output = %q", out)
	}

	scriptPath := filepath.Join(filepath.Dir(configPath), "cli-test.sbatch")
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("script not written: %v", err)
	}
	if !strings.Contains(string(data), "#SBATCH --array=0-2%3") {
		t.Error("script missing array directive")
	}
}

func TestGenerate_DryRunPrintsScript(t *testing.T) {
	configPath := writeFixture(t, 2)

	out, err := runCommand(t, "generate", configPath, "--dry-run")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.HasPrefix(out, "#!/bin/bash") {
		t.Errorf("dry run output does not start with shebang: %q", firstLine(out))
	}

	scriptPath := filepath.Join(filepath.Dir(configPath), "cli-test.sbatch")
	if _, err := os.Stat(scriptPath); !os.IsNotExist(err) {
		t.Error("dry run wrote the script file")
	}
}

func TestGenerate_InvalidConfigFails(t *testing.T) {
	configPath := writeFixture(t, 2)
	data, _ := os.ReadFile(configPath)
	broken := strings.Replace(string(data), `time: "04:00:00"`, `time: "4 hours"`, 1)
	if err := os.WriteFile(configPath, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCommand(t, "generate", configPath, "--no-history")
	if err == nil {
		t.Fatal("generate succeeded with malformed time")
	}
	if !strings.Contains(err.Error(), "sbatch.time") {
		t.Errorf("error does not name the offending key: %v", err)
	}
}

func TestGenerate_MissingArg(t *testing.T) {
	_, err := runCommand(t, "generate")
	if err == nil {
		t.Fatal("generate succeeded without a config argument")
	}
}

func TestHistory_Flow(t *testing.T) {
	configPath := writeFixture(t, 2)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	if out, err := runCommand(t, "history", "--db", dbPath); err != nil {
		t.Fatalf("history error = %v", err)
	} else if !strings.Contains(out, "No generations recorded.") {
		t.Errorf("empty history output = %q", out)
	}

	if _, err := runCommand(t, "generate", configPath, "--db", dbPath); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	out, err := runCommand(t, "history", "--db", dbPath)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "cli-test") || !strings.Contains(out, "gen_") {
		t.Errorf("history output missing generation: %q", out)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
