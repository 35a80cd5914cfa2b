package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/me/ichorgen/internal/generate"
	"github.com/me/ichorgen/internal/store"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var outputPath string
	var dryRun bool
	var dbPath string
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "generate <config.yaml>",
		Short: "Generate the SBATCH submission script from a configuration",
		Long: "Validate the configuration, discover the BAM queue, and write the\n" +
			"array-job submission script plus its catalog list file. Nothing is\n" +
			"written when validation or discovery fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := generate.Options{
				ConfigPath: args[0],
				ScriptPath: outputPath,
				DryRun:     dryRun,
			}

			// History recording never blocks generation: a broken DB
			// downgrades to a warning inside generate.Run, and an
			// unopenable one is warned about here.
			if !dryRun && !noHistory {
				if st := openHistoryStore(cmd, dbPath); st != nil {
					defer st.Close()
					opts.Store = st
				}
			}

			res, err := generate.Run(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), res.Script)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s (%d tasks, cap %d)\n",
				res.Generation.ScriptPath, res.Generation.TaskCount, res.Generation.ConcurrencyCap)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Script path (default <job_name>.sbatch next to the config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the script to stdout without writing any file")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "Generation-history database path (or ICHORGEN_DB env)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording this generation")

	return cmd
}

// openHistoryStore opens and migrates the history database, returning
// nil (with a warning) when it cannot be used.
func openHistoryStore(cmd *cobra.Command, dbPath string) store.Store {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			logger.Warn("cannot create history directory", "path", dbPath, "error", err)
			return nil
		}
	}
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		logger.Warn("cannot open history database", "path", dbPath, "error", err)
		return nil
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		logger.Warn("cannot migrate history database", "path", dbPath, "error", err)
		st.Close()
		return nil
	}
	return st
}
