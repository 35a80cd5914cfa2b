package compose

import (
	"reflect"
	"strings"
	"testing"

	"github.com/me/ichorgen/internal/config"
	"github.com/me/ichorgen/pkg/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Sbatch: config.Sbatch{
			JobName: "cna-run", CpusPerTask: 4,
		},
		Workflow: config.Workflow{
			BinSize:            1000000,
			InDir:              "/data/bams",
			OutDir:             "/data/results",
			TmpDir:             "/scratch/tmp",
			Sambamba:           "sambamba",
			ReadCounter:        "readCounter",
			Rscript:            "Rscript",
			IchorScript:        "/opt/ichorCNA/scripts/runIchorCNA.R",
			ReadCounterChrs:    "chr1,chr2",
			ReadCounterQuality: 20,
		},
		IchorCNA: config.IchorCNA{
			Paths: config.Paths{
				GCFile:   "/refs/gc.wig",
				MapFile:  "/refs/map.wig",
				CentFile: "/refs/cent.txt",
				PONFile:  "/refs/pon.rds",
			},
			Parameters: config.Parameters{
				Ploidy:               "c(2,3)",
				Normal:               "c(0.5,0.6)",
				MaxCN:                5,
				IncludeHOMD:          false,
				Chrs:                 "c(1:22)",
				ChrTrain:             "c(1:22)",
				ChrNormalize:         "c(1:22)",
				EstimateNormal:       true,
				EstimatePloidy:       true,
				EstimateScPrevalence: false,
				ScStates:             "c(1,3)",
				TxnE:                 0.9999,
				TxnStrength:          10000,
				GenomeStyle:          "UCSC",
				GenomeBuild:          "hg38",
				PlotFileType:         "pdf",
			},
		},
	}
}

func literalBinding(sample string) Binding {
	return Binding{
		InputPath: "/data/bams/" + sample + ".bam",
		Sample:    sample,
		TmpDir:    "/scratch/tmp/" + sample,
		Threads:   "4",
	}
}

func TestBuild_StageOrderIsFixed(t *testing.T) {
	p, err := Build(testConfig(), literalBinding("s1"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var names []string
	for _, s := range p.Stages {
		names = append(names, s.Name)
	}
	want := []string{StageSortIndex, StageCount, StageSegment}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("stage order = %v, want %v", names, want)
	}
}

func TestBuild_PathsNamespacedBySample(t *testing.T) {
	p, err := Build(testConfig(), literalBinding("patient7"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, stage := range p.Stages {
		for _, out := range stage.ExpectedOutputs {
			if !strings.Contains(out, "patient7") {
				t.Errorf("stage %s output %q not namespaced by sample", stage.Name, out)
			}
		}
	}
}

func TestBuild_DistinctSamplesNeverShareOutputs(t *testing.T) {
	a, err := Build(testConfig(), literalBinding("sampleA"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(testConfig(), literalBinding("sampleB"))
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, s := range a.Stages {
		for _, out := range s.ExpectedOutputs {
			seen[out] = true
		}
	}
	for _, s := range b.Stages {
		for _, out := range s.ExpectedOutputs {
			if seen[out] {
				t.Errorf("output path %q shared between samples", out)
			}
		}
	}
}

func TestBuild_StagesChainArtifacts(t *testing.T) {
	p, err := Build(testConfig(), literalBinding("s1"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Each stage's expected input must be produced upstream (or be the
	// catalog file itself for the first stage).
	sortStage, countStage, segStage := p.Stages[0], p.Stages[1], p.Stages[2]

	if sortStage.ExpectedInputs[0] != "/data/bams/s1.bam" {
		t.Errorf("sort input = %q", sortStage.ExpectedInputs[0])
	}
	if countStage.ExpectedInputs[0] != sortStage.ExpectedOutputs[0] {
		t.Errorf("count consumes %q, sort produces %q",
			countStage.ExpectedInputs[0], sortStage.ExpectedOutputs[0])
	}
	if segStage.ExpectedInputs[0] != countStage.ExpectedOutputs[0] {
		t.Errorf("segment consumes %q, count produces %q",
			segStage.ExpectedInputs[0], countStage.ExpectedOutputs[0])
	}
}

func TestBuild_CountStageArguments(t *testing.T) {
	p, err := Build(testConfig(), literalBinding("s1"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	line := p.Stages[1].Commands[0].Line()
	for _, want := range []string{"--window 1000000", "--quality 20", "--chromosome chr1,chr2"} {
		if !strings.Contains(line, want) {
			t.Errorf("count command %q missing %q", line, want)
		}
	}
	if p.Stages[1].Commands[0].Stdout == "" {
		t.Error("count command should capture stdout to the wig file")
	}
}

func TestBuild_BinSizeOnlyAffectsCountStage(t *testing.T) {
	base, err := Build(testConfig(), literalBinding("s1"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Workflow.BinSize = 500000
	changed, err := Build(cfg, literalBinding("s1"))
	if err != nil {
		t.Fatal(err)
	}

	if reflect.DeepEqual(base.Stages[1], changed.Stages[1]) {
		t.Error("count stage unchanged despite different bin_size")
	}
	if !reflect.DeepEqual(base.Stages[0], changed.Stages[0]) {
		t.Error("sort stage changed with bin_size")
	}
	if !reflect.DeepEqual(base.Stages[2], changed.Stages[2]) {
		t.Error("segment stage changed with bin_size")
	}
}

func TestBuild_SegmentArguments(t *testing.T) {
	p, err := Build(testConfig(), literalBinding("s1"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	line := p.Stages[2].Commands[0].Line()
	for _, want := range []string{
		"--id s1",
		"--gcWig /refs/gc.wig",
		"--normalPanel /refs/pon.rds",
		"--ploidy c(2,3)",
		"--includeHOMD FALSE",
		"--estimateNormal TRUE",
		"--estimateScPrevalence FALSE",
		"--txnE 0.9999",
		"--txnStrength 10000",
		"--outDir /data/results/s1",
		"--plotFileType pdf",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("segment command missing %q\n%s", want, line)
		}
	}
}

func TestBuild_EmptyExecutableIsTemplateError(t *testing.T) {
	cfg := testConfig()
	cfg.Workflow.Sambamba = ""

	_, err := Build(cfg, literalBinding("s1"))
	if err == nil {
		t.Fatal("Build() succeeded with empty executable path")
	}
	if model.CodeOf(err) != model.ErrTemplate {
		t.Errorf("code = %v, want TEMPLATE_ERROR", model.CodeOf(err))
	}
}

func TestBuild_EmptyReferenceIsTemplateError(t *testing.T) {
	cfg := testConfig()
	cfg.IchorCNA.Paths.PONFile = ""

	_, err := Build(cfg, literalBinding("s1"))
	if model.CodeOf(err) != model.ErrTemplate {
		t.Errorf("code = %v, want TEMPLATE_ERROR", model.CodeOf(err))
	}
}

func TestShellBinding(t *testing.T) {
	b := ShellBinding()
	if b.InputPath != "${INPUT_BAM}" || b.Sample != "${SAMPLE_ID}" || b.TmpDir != "${TMP_DIR}" {
		t.Errorf("ShellBinding() = %+v", b)
	}

	// A pipeline built from the shell binding must defer every
	// per-task value to the body preamble.
	p, err := Build(testConfig(), b)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	line := p.Stages[0].Commands[0].Line()
	if !strings.Contains(line, "${INPUT_BAM}") || !strings.Contains(line, "${SLURM_CPUS_PER_TASK}") {
		t.Errorf("shell pipeline not parameterized: %s", line)
	}
}
