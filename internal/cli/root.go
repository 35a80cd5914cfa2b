// Package cli implements the ichorgen command surface.
package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/ichorgen/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultDBPath returns the generation-history database location,
// honoring the ICHORGEN_DB env var.
func defaultDBPath() string {
	if p := os.Getenv("ICHORGEN_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "ichorgen.db"
	}
	return filepath.Join(home, ".ichorgen", "ichorgen.db")
}

// NewRootCmd creates the root cobra command for the ichorgen CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ichorgen",
		Short: "ichorgen — SBATCH script generator for the ichorCNA coverage pipeline",
		Long: "ichorgen turns a YAML workflow configuration into a SLURM array-job\n" +
			"script running sort/index, windowed read counting and ichorCNA\n" +
			"segmentation over a directory of BAM files.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newGenerateCmd(),
		newHistoryCmd(),
	)

	return root
}
