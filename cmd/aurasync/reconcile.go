// cmd/aurasync/reconcile.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/sonnibytes/aura-github-sync/internal/syncer"
)

func newReconcileCmd() *cobra.Command {
	var (
		dryRun         bool
		showComparison bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Replace estimated commit summaries with values recomputed from weekly data",
		Long: `Recompute commit summaries from the stored weekly activity of every
repository that has some, replacing the faster but less precise estimates.

With --dry-run nothing is written; combine with --show-comparison to audit
how far off the estimates were.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			s := syncer.NewSyncer(a.pool, a.gh, a.logger, syncer.Options{})

			comps, err := s.Reconcile(ctx, dryRun)
			if err != nil {
				return err
			}

			cmd.Printf("reconciled %d repositories (dry-run: %v)\n", len(comps), dryRun)
			if showComparison {
				for _, c := range comps {
					cmd.Printf("  %s: total %d -> %d (%+d), recent %d -> %d (%+d)\n",
						c.FullName,
						c.EstimatedTotal, c.AccurateTotal, c.TotalDelta,
						c.EstimatedRecent, c.AccurateRecent, c.RecentDelta)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute but do not write")
	cmd.Flags().BoolVar(&showComparison, "show-comparison", false, "print estimated vs accurate values per repository")

	return cmd
}
