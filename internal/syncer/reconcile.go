// internal/syncer/reconcile.go
package syncer

import (
	"context"

	"github.com/sonnibytes/aura-github-sync/internal/database"
	"github.com/sonnibytes/aura-github-sync/internal/stats"
)

// Reconcile recomputes summary metrics from the stored weekly series of
// every repository that has one, replacing the estimates with accurate
// values. With dryRun set, nothing is written; the comparisons alone are
// returned for inspection.
func (s *Syncer) Reconcile(ctx context.Context, dryRun bool) ([]stats.Comparison, error) {
	repos, err := s.db.ListReposWithWeeklyData(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reconciliation starting", "repos", len(repos), "dry_run", dryRun)

	comparisons := make([]stats.Comparison, 0, len(repos))
	for i := range repos {
		repo := &repos[i]

		weeks, err := s.db.ListCommitWeeks(ctx, repo.ID)
		if err != nil {
			s.logger.Error("failed to load weekly series", "repo", repo.FullName, "error", err)
			continue
		}

		acc := stats.Reconcile(weeks)
		comparisons = append(comparisons, stats.Compare(repo, acc))

		if dryRun {
			continue
		}
		err = s.db.ApplyReconciledSummary(ctx, repo.ID, database.ReconciledSummary{
			TotalCommits:       acc.TotalCommits,
			CommitsLast30Days:  acc.CommitsLast30Days,
			CommitsLastYear:    acc.CommitsLastYear,
			AvgCommitsPerMonth: acc.AvgCommitsPerMonth,
		})
		if err != nil {
			s.logger.Error("failed to apply reconciled summary", "repo", repo.FullName, "error", err)
			continue
		}
		s.logger.Info("summary reconciled", "repo", repo.FullName,
			"total", acc.TotalCommits, "weeks", acc.WeekCount)
	}
	return comparisons, nil
}
