// Package config loads and validates the YAML workflow configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/me/ichorgen/pkg/model"
	"gopkg.in/yaml.v3"
)

// Config is the validated, immutable workflow configuration.
// It mirrors the three top-level groups of the YAML document.
type Config struct {
	Sbatch   Sbatch   `yaml:"sbatch"`
	Workflow Workflow `yaml:"workflow"`
	IchorCNA IchorCNA `yaml:"ichorCNA"`
}

// Sbatch holds the cluster submission parameters.
type Sbatch struct {
	JobName       string `yaml:"job_name"`
	Partition     string `yaml:"partition"`
	Account       string `yaml:"account"` // optional
	Time          string `yaml:"time"`
	Nodes         int    `yaml:"nodes"`
	NtasksPerNode int    `yaml:"ntasks_per_node"`
	CpusPerTask   int    `yaml:"cpus_per_task"`
	Mem           string `yaml:"mem"`
	Output        string `yaml:"output"`
	Error         string `yaml:"error"`
	MailUser      string `yaml:"mail_user"`
	MailType      string `yaml:"mail_type"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	MaxQueue      int    `yaml:"max_queue"`
}

// Workflow holds the pipeline tool and directory parameters.
type Workflow struct {
	BinSize            int    `yaml:"bin_size"`
	InDir              string `yaml:"my_in_dir"`
	OutDir             string `yaml:"my_out_dir"`
	TmpDir             string `yaml:"my_tmp_dir"`
	Sambamba           string `yaml:"sambamba"`
	ReadCounter        string `yaml:"readCounter"`
	Rscript            string `yaml:"Rscript"`
	IchorScript        string `yaml:"ichorCNA_script"`
	ReadCounterChrs    string `yaml:"readcounter_chrs"`
	ReadCounterQuality int    `yaml:"readcounter_quality"`
}

// IchorCNA holds the segmentation reference paths and model parameters.
type IchorCNA struct {
	Paths      Paths      `yaml:"paths"`
	Parameters Parameters `yaml:"parameters"`
}

// Paths are the reference files consumed by the segmentation script.
type Paths struct {
	GCFile   string `yaml:"gc_file"`
	MapFile  string `yaml:"map_file"`
	CentFile string `yaml:"cent_file"`
	PONFile  string `yaml:"PON_file"`
}

// Parameters are the segmentation model parameters. The vector-valued
// fields (Ploidy, Normal, ScStates, Chrs, ChrTrain, ChrNormalize) use
// an external R-literal grammar and pass through opaquely; only
// delimiter balance is checked here.
type Parameters struct {
	Ploidy               string  `yaml:"ploidy"`
	Normal               string  `yaml:"normal"`
	MaxCN                int     `yaml:"maxCN"`
	IncludeHOMD          bool    `yaml:"includeHOMD"`
	Chrs                 string  `yaml:"chrs"`
	ChrTrain             string  `yaml:"chrTrain"`
	ChrNormalize         string  `yaml:"chrNormalize"`
	EstimateNormal       bool    `yaml:"estimateNormal"`
	EstimatePloidy       bool    `yaml:"estimatePloidy"`
	EstimateScPrevalence bool    `yaml:"estimateScPrevalence"`
	ScStates             string  `yaml:"scStates"`
	TxnE                 float64 `yaml:"txnE"`
	TxnStrength          int     `yaml:"txnStrength"`
	GenomeStyle          string  `yaml:"genomeStyle"`
	GenomeBuild          string  `yaml:"genomeBuild"`
	PlotFileType         string  `yaml:"plotFileType"`
}

// Load parses and validates a raw YAML configuration document.
// On any violation it returns a CONFIG_ERROR listing every offending
// key; no partial Config is ever returned.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, model.NewConfigError(fmt.Sprintf("YAML parse error: %v", err))
	}

	cfg.normalize()

	if errs := validate(&cfg); len(errs) > 0 {
		return nil, model.NewConfigError("configuration validation failed", errs...)
	}
	return &cfg, nil
}

// LoadFile reads and loads the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewConfigError(fmt.Sprintf("read config: %v", err))
	}
	return Load(data)
}

// normalize strips trailing slashes from directory paths so composed
// artifact paths never contain doubled separators.
func (c *Config) normalize() {
	c.Workflow.InDir = strings.TrimRight(c.Workflow.InDir, "/")
	c.Workflow.OutDir = strings.TrimRight(c.Workflow.OutDir, "/")
	c.Workflow.TmpDir = strings.TrimRight(c.Workflow.TmpDir, "/")
}
