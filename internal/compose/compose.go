// Package compose builds the typed per-task command pipeline. It is
// the single place where stage ordering, argument layout and artifact
// paths are decided; serialization and quoting belong to render.
package compose

import (
	"strconv"

	"github.com/me/ichorgen/internal/config"
	"github.com/me/ichorgen/pkg/model"
)

// Stage names, in their fixed execution order.
const (
	StageSortIndex = "sort_index"
	StageCount     = "count"
	StageSegment   = "segment"
)

// Command is one external invocation: tool, ordered arguments, and an
// optional stdout capture target.
type Command struct {
	Tool   string
	Args   []string
	Stdout string
}

// Stage is one pipeline step with its commands and the artifacts it
// consumes and must leave behind. Expected outputs let the renderer
// emit explicit existence checks after the stage runs.
type Stage struct {
	Name            string
	Commands        []Command
	ExpectedInputs  []string
	ExpectedOutputs []string
}

// Pipeline is the ordered, fail-fast stage sequence for one sample.
type Pipeline struct {
	Stages []Stage
}

// Binding supplies the per-task values a pipeline is specialized
// with. Values may be literals (tests, inspection) or shell parameter
// references (the rendered script body); composition itself never
// touches the filesystem.
type Binding struct {
	InputPath string
	Sample    string
	TmpDir    string
	Threads   string
}

// Shell variable names resolved once at the top of the rendered
// per-task body.
const (
	ShellInputVar  = "INPUT_BAM"
	ShellSampleVar = "SAMPLE_ID"
	ShellTmpVar    = "TMP_DIR"
)

// ShellBinding returns the Binding used for the parameterized script
// body, referencing the variables the body preamble defines.
func ShellBinding() Binding {
	return Binding{
		InputPath: "${" + ShellInputVar + "}",
		Sample:    "${" + ShellSampleVar + "}",
		TmpDir:    "${" + ShellTmpVar + "}",
		Threads:   "${SLURM_CPUS_PER_TASK}",
	}
}

// Build composes the three-stage pipeline for one sample. Every
// intermediate and output path is namespaced by the sample name, so
// concurrently running tasks can never write the same path. Returns a
// TEMPLATE_ERROR if a required executable or reference path is empty.
func Build(cfg *config.Config, b Binding) (*Pipeline, error) {
	if err := checkResolvable(cfg); err != nil {
		return nil, err
	}

	filtered := b.TmpDir + "/" + b.Sample + ".filtered.bam"
	wig := b.TmpDir + "/" + b.Sample + ".wig"
	sampleOut := cfg.Workflow.OutDir + "/" + b.Sample

	sortIndex := Stage{
		Name: StageSortIndex,
		Commands: []Command{
			{
				Tool: cfg.Workflow.Sambamba,
				Args: []string{
					"view",
					"-t", b.Threads,
					"-l", "3",
					"-h",
					"-f", "bam",
					"-F", "not (duplicate or failed_quality_control)",
					"-o", filtered + ".tmp",
					b.InputPath,
				},
			},
			// Write-then-rename keeps half-written artifacts invisible
			// to the existence checks.
			{Tool: "mv", Args: []string{filtered + ".tmp", filtered}},
			{
				Tool: cfg.Workflow.Sambamba,
				Args: []string{"index", "-t", b.Threads, filtered},
			},
		},
		ExpectedInputs:  []string{b.InputPath},
		ExpectedOutputs: []string{filtered, filtered + ".bai"},
	}

	count := Stage{
		Name: StageCount,
		Commands: []Command{
			{
				Tool: cfg.Workflow.ReadCounter,
				Args: []string{
					"--chromosome", cfg.Workflow.ReadCounterChrs,
					"--window", strconv.Itoa(cfg.Workflow.BinSize),
					"--quality", strconv.Itoa(cfg.Workflow.ReadCounterQuality),
					filtered,
				},
				Stdout: wig + ".tmp",
			},
			{Tool: "mv", Args: []string{wig + ".tmp", wig}},
		},
		ExpectedInputs:  []string{filtered},
		ExpectedOutputs: []string{wig},
	}

	p := cfg.IchorCNA.Parameters
	segment := Stage{
		Name: StageSegment,
		Commands: []Command{
			{
				Tool: cfg.Workflow.Rscript,
				Args: []string{
					cfg.Workflow.IchorScript,
					"--id", b.Sample,
					"--WIG", wig,
					"--gcWig", cfg.IchorCNA.Paths.GCFile,
					"--mapWig", cfg.IchorCNA.Paths.MapFile,
					"--centromere", cfg.IchorCNA.Paths.CentFile,
					"--normalPanel", cfg.IchorCNA.Paths.PONFile,
					"--ploidy", p.Ploidy,
					"--normal", p.Normal,
					"--maxCN", strconv.Itoa(p.MaxCN),
					"--includeHOMD", rBool(p.IncludeHOMD),
					"--chrs", p.Chrs,
					"--chrTrain", p.ChrTrain,
					"--chrNormalize", p.ChrNormalize,
					"--estimateNormal", rBool(p.EstimateNormal),
					"--estimatePloidy", rBool(p.EstimatePloidy),
					"--estimateScPrevalence", rBool(p.EstimateScPrevalence),
					"--scStates", p.ScStates,
					"--txnE", strconv.FormatFloat(p.TxnE, 'g', -1, 64),
					"--txnStrength", strconv.Itoa(p.TxnStrength),
					"--outDir", sampleOut,
					"--genomeBuild", p.GenomeBuild,
					"--genomeStyle", p.GenomeStyle,
					"--plotFileType", p.PlotFileType,
				},
			},
		},
		ExpectedInputs:  []string{wig},
		ExpectedOutputs: []string{sampleOut + "/" + b.Sample + ".params.txt"},
	}

	return &Pipeline{Stages: []Stage{sortIndex, count, segment}}, nil
}

// checkResolvable verifies every executable and reference path the
// pipeline depends on is present. Config validation normally catches
// these; composing from a hand-built Config must not slip through.
func checkResolvable(cfg *config.Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"workflow.sambamba", cfg.Workflow.Sambamba},
		{"workflow.readCounter", cfg.Workflow.ReadCounter},
		{"workflow.Rscript", cfg.Workflow.Rscript},
		{"workflow.ichorCNA_script", cfg.Workflow.IchorScript},
		{"workflow.my_out_dir", cfg.Workflow.OutDir},
		{"ichorCNA.paths.gc_file", cfg.IchorCNA.Paths.GCFile},
		{"ichorCNA.paths.map_file", cfg.IchorCNA.Paths.MapFile},
		{"ichorCNA.paths.cent_file", cfg.IchorCNA.Paths.CentFile},
		{"ichorCNA.paths.PON_file", cfg.IchorCNA.Paths.PONFile},
	}
	for _, r := range required {
		if r.value == "" {
			return model.NewTemplateError("required path %s is empty", r.name)
		}
	}
	return nil
}

func rBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// Line renders a command for display or logging, without quoting.
func (c Command) Line() string {
	line := c.Tool
	for _, a := range c.Args {
		line += " " + a
	}
	if c.Stdout != "" {
		line += " > " + c.Stdout
	}
	return line
}
