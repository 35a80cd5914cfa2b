// Package generate runs the end-to-end script generation chain:
// config → catalog → plan → compose → render → file writes. Every
// validation step completes before the first byte is written, so a
// failing generation leaves no partial output behind.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/me/ichorgen/internal/catalog"
	"github.com/me/ichorgen/internal/compose"
	"github.com/me/ichorgen/internal/config"
	"github.com/me/ichorgen/internal/plan"
	"github.com/me/ichorgen/internal/render"
	"github.com/me/ichorgen/internal/store"
	"github.com/me/ichorgen/pkg/model"
)

// Options control one generation run.
type Options struct {
	ConfigPath string
	// ScriptPath overrides the default <job_name>.sbatch next to the
	// config file.
	ScriptPath string
	// DryRun skips all filesystem writes; the rendered script is only
	// returned.
	DryRun bool
	// Store, when non-nil, records the generation. Recording is
	// best-effort: the script is already on disk when it runs.
	Store store.Store
}

// Result describes a completed generation.
type Result struct {
	Script     string
	Generation *model.Generation
}

// Run executes one generation. On any config, catalog or compose
// failure it returns before writing anything.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Result, error) {
	log := logger.With("component", "generate")

	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	log.Debug("configuration loaded", "job_name", cfg.Sbatch.JobName)

	entries, err := catalog.Build(cfg.Workflow.InDir, cfg.Sbatch.MaxQueue, logger)
	if err != nil {
		return nil, err
	}

	arrayPlan := plan.New(len(entries), cfg.Sbatch.MaxConcurrent)
	log.Info("planned array job",
		"tasks", arrayPlan.TaskCount,
		"concurrency_cap", arrayPlan.ConcurrencyCap)

	pipe, err := compose.Build(cfg, compose.ShellBinding())
	if err != nil {
		return nil, err
	}
	for _, stage := range pipe.Stages {
		for _, cmd := range stage.Commands {
			log.Debug("composed command", "stage", stage.Name, "command", cmd.Line())
		}
	}

	listPath := filepath.Join(cfg.Workflow.OutDir, cfg.Sbatch.JobName+".lst")
	script, err := render.Script(cfg, arrayPlan, pipe, listPath)
	if err != nil {
		return nil, err
	}

	scriptPath := opts.ScriptPath
	if scriptPath == "" {
		scriptPath = filepath.Join(filepath.Dir(opts.ConfigPath), cfg.Sbatch.JobName+".sbatch")
	}

	gen := &model.Generation{
		ID:             model.NewGenerationID(),
		JobName:        cfg.Sbatch.JobName,
		ConfigPath:     opts.ConfigPath,
		ScriptPath:     scriptPath,
		ListPath:       listPath,
		FileCount:      len(entries),
		TaskCount:      arrayPlan.TaskCount,
		ConcurrencyCap: arrayPlan.ConcurrencyCap,
		CreatedAt:      time.Now().UTC(),
	}

	if opts.DryRun {
		log.Info("dry run, skipping writes", "script_path", scriptPath)
		return &Result{Script: script, Generation: gen}, nil
	}

	if err := writeOutputs(cfg, entries, script, listPath, scriptPath); err != nil {
		return nil, err
	}
	log.Info("generated submission script",
		"script_path", scriptPath,
		"list_path", listPath,
		"array", arrayPlan.Directive())

	if opts.Store != nil {
		if err := opts.Store.CreateGeneration(ctx, gen); err != nil {
			log.Warn("failed to record generation history", "error", err)
		}
	}

	return &Result{Script: script, Generation: gen}, nil
}

// writeOutputs persists the list file and script, creating the output
// and log directories first. Called only after every pure step has
// succeeded.
func writeOutputs(cfg *config.Config, entries []catalog.Entry, script, listPath, scriptPath string) error {
	dirs := []string{cfg.Workflow.OutDir}
	for _, logPath := range []string{cfg.Sbatch.Output, cfg.Sbatch.Error} {
		if dir := filepath.Dir(logPath); dir != "." {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Path)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write list file %s: %w", listPath, err)
	}

	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		// A failed run must leave no partial output behind.
		os.Remove(listPath)
		return fmt.Errorf("write script %s: %w", scriptPath, err)
	}
	return nil
}
