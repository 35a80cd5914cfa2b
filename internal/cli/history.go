package cli

import (
	"fmt"

	"github.com/me/ichorgen/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past script generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSQLiteStore(dbPath, logger)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate history: %w", err)
			}

			gens, err := st.ListGenerations(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list generations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(gens) == 0 {
				fmt.Fprintln(out, "No generations recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-20s  %6s  %5s  %s\n", "ID", "JOB", "TASKS", "CAP", "CREATED")
			fmt.Fprintf(out, "%-40s  %-20s  %6s  %5s  %s\n", "----", "---", "-----", "---", "-------")
			for _, g := range gens {
				fmt.Fprintf(out, "%-40s  %-20s  %6d  %5d  %s\n",
					g.ID, g.JobName, g.TaskCount, g.ConcurrencyCap,
					g.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "Generation-history database path (or ICHORGEN_DB env)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of generations to show")

	return cmd
}
