// Package render serializes the submission directives and the
// composed pipeline into the final SBATCH script text. All shell
// quoting lives here; upstream components deal only in typed values.
package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/me/ichorgen/internal/compose"
	"github.com/me/ichorgen/internal/config"
	"github.com/me/ichorgen/internal/plan"
)

// scriptTemplate emits the directive block followed by one
// parameterized per-task body. The body resolves the active array
// index into immutable locals up front, then runs the three stages
// strictly in order, checking exit status after every command and
// artifact existence after every stage. The first failure aborts the
// task; sibling array tasks are unaffected.
var scriptTemplate = template.Must(template.New("sbatch").Funcs(template.FuncMap{
	"quote":   quote,
	"command": renderCommand,
}).Parse(`#!/bin/bash
#SBATCH --job-name={{.Sbatch.JobName}}
#SBATCH --partition={{.Sbatch.Partition}}
{{- if .Sbatch.Account}}
#SBATCH --account={{.Sbatch.Account}}
{{- end}}
#SBATCH --array={{.Array}}
#SBATCH --time={{.Sbatch.Time}}
#SBATCH --nodes={{.Sbatch.Nodes}}
#SBATCH --ntasks-per-node={{.Sbatch.NtasksPerNode}}
#SBATCH --cpus-per-task={{.Sbatch.CpusPerTask}}
#SBATCH --mem={{.Sbatch.Mem}}
#SBATCH --output={{.Sbatch.Output}}
#SBATCH --error={{.Sbatch.Error}}
#SBATCH --mail-user={{.Sbatch.MailUser}}
#SBATCH --mail-type={{.Sbatch.MailType}}

set -eo pipefail
umask 077

# Resolve the active array index to its catalog entry once; the rest
# of the body works only from these locals.
mapfile -t BAM_FILES < {{quote .ListPath}}
INPUT_BAM="${BAM_FILES[$SLURM_ARRAY_TASK_ID]}"
if [ -z "${INPUT_BAM}" ]; then
    echo "ERROR: no catalog entry for array index ${SLURM_ARRAY_TASK_ID}" >&2
    exit 1
fi
SAMPLE_ID="$(basename "${INPUT_BAM}" .bam)"

mkdir -p {{quote .TmpParent}} {{quote .SampleOutDir}}
TMP_DIR="$(mktemp -d -p {{quote .TmpParent}})"
trap 'rm -rf "${TMP_DIR}"' EXIT

{{range $stage := .Stages}}
echo "[$(date '+%Y-%m-%d %H:%M:%S')] ${SAMPLE_ID}: {{$stage.Name}}"
{{- range $stage.Commands}}
if ! {{command .}}; then
    echo "ERROR: {{$stage.Name}} failed for ${SAMPLE_ID}" >&2
    exit 1
fi
{{- end}}
{{- range $stage.ExpectedOutputs}}
if [ ! -e {{quote .}} ]; then
    echo "ERROR: {{$stage.Name}} did not produce expected output" {{quote .}} >&2
    exit 1
fi
{{- end}}
{{end}}
echo "[$(date '+%Y-%m-%d %H:%M:%S')] ${SAMPLE_ID}: done"
`))

type scriptData struct {
	Sbatch       config.Sbatch
	Array        string
	ListPath     string
	TmpParent    string
	SampleOutDir string
	Stages       []compose.Stage
}

// Script renders the full submission script. listPath is the catalog
// list file the per-task body indexes into at run time. Pure text
// building; no filesystem or process side effects.
func Script(cfg *config.Config, p plan.ArrayPlan, pipe *compose.Pipeline, listPath string) (string, error) {
	data := scriptData{
		Sbatch:       cfg.Sbatch,
		Array:        p.Directive(),
		ListPath:     listPath,
		TmpParent:    cfg.Workflow.TmpDir + "/${SAMPLE_ID}-${SLURM_JOB_ID}",
		SampleOutDir: cfg.Workflow.OutDir + "/${SAMPLE_ID}",
		Stages:       pipe.Stages,
	}

	var sb strings.Builder
	if err := scriptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}
	return sb.String(), nil
}

// quote wraps s in double quotes so embedded shell parameters still
// expand at run time while spaces and metacharacters survive.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// renderCommand serializes one typed command, quoting every argument.
func renderCommand(c compose.Command) string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Tool))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	line := strings.Join(parts, " ")
	if c.Stdout != "" {
		line += " > " + quote(c.Stdout)
	}
	return line
}
