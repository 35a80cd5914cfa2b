package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/me/ichorgen/pkg/model"
)

var (
	timeRe = regexp.MustCompile(`^\d+:\d{2}:\d{2}$`)
	memRe  = regexp.MustCompile(`^\d+[KMG]$`)
)

// validate checks every field invariant and returns one FieldError per
// violation so the caller sees all problems in a single pass.
func validate(c *Config) []model.FieldError {
	var errs []model.FieldError

	errs = append(errs, validateSbatch(&c.Sbatch)...)
	errs = append(errs, validateWorkflow(&c.Workflow)...)
	errs = append(errs, validateIchorCNA(&c.IchorCNA)...)

	return errs
}

func validateSbatch(s *Sbatch) []model.FieldError {
	var errs []model.FieldError

	errs = append(errs, requireString("sbatch.job_name", s.JobName)...)
	errs = append(errs, requireString("sbatch.partition", s.Partition)...)
	errs = append(errs, requireString("sbatch.output", s.Output)...)
	errs = append(errs, requireString("sbatch.error", s.Error)...)
	errs = append(errs, requireString("sbatch.mail_user", s.MailUser)...)
	errs = append(errs, requireString("sbatch.mail_type", s.MailType)...)

	if !timeRe.MatchString(s.Time) {
		errs = append(errs, model.FieldError{
			Field:   "sbatch.time",
			Message: fmt.Sprintf("%q does not match HH:MM:SS", s.Time),
		})
	}
	if !memRe.MatchString(s.Mem) {
		errs = append(errs, model.FieldError{
			Field:   "sbatch.mem",
			Message: fmt.Sprintf("%q does not match <int><K|M|G>", s.Mem),
		})
	}

	errs = append(errs, requirePositive("sbatch.nodes", s.Nodes)...)
	errs = append(errs, requirePositive("sbatch.ntasks_per_node", s.NtasksPerNode)...)
	errs = append(errs, requirePositive("sbatch.cpus_per_task", s.CpusPerTask)...)
	errs = append(errs, requirePositive("sbatch.max_concurrent", s.MaxConcurrent)...)
	errs = append(errs, requirePositive("sbatch.max_queue", s.MaxQueue)...)

	if s.MaxConcurrent > 0 && s.MaxQueue > 0 && s.MaxConcurrent > s.MaxQueue {
		errs = append(errs, model.FieldError{
			Field:   "sbatch.max_concurrent",
			Message: fmt.Sprintf("max_concurrent (%d) exceeds max_queue (%d)", s.MaxConcurrent, s.MaxQueue),
		})
	}

	return errs
}

func validateWorkflow(w *Workflow) []model.FieldError {
	var errs []model.FieldError

	errs = append(errs, requireString("workflow.my_in_dir", w.InDir)...)
	errs = append(errs, requireString("workflow.my_out_dir", w.OutDir)...)
	errs = append(errs, requireString("workflow.my_tmp_dir", w.TmpDir)...)
	errs = append(errs, requireString("workflow.sambamba", w.Sambamba)...)
	errs = append(errs, requireString("workflow.readCounter", w.ReadCounter)...)
	errs = append(errs, requireString("workflow.Rscript", w.Rscript)...)
	errs = append(errs, requireString("workflow.ichorCNA_script", w.IchorScript)...)
	errs = append(errs, requireString("workflow.readcounter_chrs", w.ReadCounterChrs)...)

	errs = append(errs, requirePositive("workflow.bin_size", w.BinSize)...)
	errs = append(errs, requirePositive("workflow.readcounter_quality", w.ReadCounterQuality)...)

	return errs
}

func validateIchorCNA(ic *IchorCNA) []model.FieldError {
	var errs []model.FieldError

	errs = append(errs, requireString("ichorCNA.paths.gc_file", ic.Paths.GCFile)...)
	errs = append(errs, requireString("ichorCNA.paths.map_file", ic.Paths.MapFile)...)
	errs = append(errs, requireString("ichorCNA.paths.cent_file", ic.Paths.CentFile)...)
	errs = append(errs, requireString("ichorCNA.paths.PON_file", ic.Paths.PONFile)...)

	p := &ic.Parameters
	errs = append(errs, requirePositive("ichorCNA.parameters.maxCN", p.MaxCN)...)
	errs = append(errs, requirePositive("ichorCNA.parameters.txnStrength", p.TxnStrength)...)
	if p.TxnE <= 0 {
		errs = append(errs, model.FieldError{
			Field:   "ichorCNA.parameters.txnE",
			Message: "must be a positive number",
		})
	}

	errs = append(errs, requireString("ichorCNA.parameters.genomeStyle", p.GenomeStyle)...)
	errs = append(errs, requireString("ichorCNA.parameters.genomeBuild", p.GenomeBuild)...)
	errs = append(errs, requireString("ichorCNA.parameters.plotFileType", p.PlotFileType)...)

	// Vector-valued parameters are opaque R literals; only delimiter
	// balance is checked, never semantics.
	opaque := []struct {
		field string
		value string
	}{
		{"ichorCNA.parameters.ploidy", p.Ploidy},
		{"ichorCNA.parameters.normal", p.Normal},
		{"ichorCNA.parameters.scStates", p.ScStates},
		{"ichorCNA.parameters.chrs", p.Chrs},
		{"ichorCNA.parameters.chrTrain", p.ChrTrain},
		{"ichorCNA.parameters.chrNormalize", p.ChrNormalize},
	}
	for _, o := range opaque {
		if o.value == "" {
			errs = append(errs, model.FieldError{Field: o.field, Message: "is required"})
			continue
		}
		if !balancedDelimiters(o.value) {
			errs = append(errs, model.FieldError{
				Field:   o.field,
				Message: fmt.Sprintf("%q has unbalanced delimiters", o.value),
			})
		}
	}

	return errs
}

func requireString(field, value string) []model.FieldError {
	if strings.TrimSpace(value) == "" {
		return []model.FieldError{{Field: field, Message: "is required"}}
	}
	return nil
}

func requirePositive(field string, value int) []model.FieldError {
	if value <= 0 {
		return []model.FieldError{{Field: field, Message: "must be a positive integer"}}
	}
	return nil
}

// balancedDelimiters reports whether parentheses, brackets, braces and
// quotes in s pair up. Quoted sections hide bracket characters.
func balancedDelimiters(s string) bool {
	var stack []rune
	var quote rune

	for _, r := range s {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 {
				return false
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if (r == ')' && open != '(') || (r == ']' && open != '[') || (r == '}' && open != '{') {
				return false
			}
		}
	}
	return len(stack) == 0 && quote == 0
}
