// internal/stats/reconcile.go
package stats

import (
	"sort"

	"github.com/sonnibytes/aura-github-sync/internal/model"
)

const (
	// recentWindowWeeks approximates "last 30 days" as the most recent 5
	// stored weeks. The window over-covers 30 days when 5 full weeks exist
	// and under-covers when fewer do; both behaviors are preserved as-is.
	recentWindowWeeks = 5

	// weeksPerMonth converts a per-week rate into a per-month one.
	weeksPerMonth = 4.33
)

// Accurate holds summary metrics recomputed from the stored weekly series,
// the ground truth counterpart to the estimator's output.
type Accurate struct {
	TotalCommits       int
	CommitsLast30Days  int
	CommitsLastYear    int
	AvgCommitsPerMonth float64
	WeekCount          int
}

// Reconcile recomputes summary metrics from the stored weeks of one
// repository. Weeks may arrive in any order. At most 52 weeks are ever
// retained upstream, so the full sum doubles as the last-year count.
func Reconcile(weeks []model.CommitWeek) Accurate {
	sorted := make([]model.CommitWeek, len(weeks))
	copy(sorted, weeks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year > sorted[j].Year
		}
		return sorted[i].Week > sorted[j].Week
	})

	acc := Accurate{WeekCount: len(sorted)}
	for i, w := range sorted {
		acc.TotalCommits += w.CommitCount
		if i < recentWindowWeeks {
			acc.CommitsLast30Days += w.CommitCount
		}
	}
	acc.CommitsLastYear = acc.TotalCommits

	if acc.WeekCount > 0 {
		acc.AvgCommitsPerMonth = float64(acc.TotalCommits) / float64(acc.WeekCount) * weeksPerMonth
	}
	return acc
}

// Comparison lays the estimated summary fields of a repository next to the
// reconciled values so operators can audit how far off the estimate was.
type Comparison struct {
	FullName string `json:"full_name"`

	EstimatedTotal int `json:"estimated_total"`
	AccurateTotal  int `json:"accurate_total"`
	TotalDelta     int `json:"total_delta"`

	EstimatedRecent int `json:"estimated_recent"`
	AccurateRecent  int `json:"accurate_recent"`
	RecentDelta     int `json:"recent_delta"`
}

// Compare builds the estimated-vs-accurate diff for one repository.
// Deltas are signed: positive means the weekly data found more commits
// than the estimate claimed.
func Compare(repo *model.Repository, acc Accurate) Comparison {
	return Comparison{
		FullName:        repo.FullName,
		EstimatedTotal:  repo.TotalCommits,
		AccurateTotal:   acc.TotalCommits,
		TotalDelta:      acc.TotalCommits - repo.TotalCommits,
		EstimatedRecent: repo.CommitsLast30Days,
		AccurateRecent:  acc.CommitsLast30Days,
		RecentDelta:     acc.CommitsLast30Days - repo.CommitsLast30Days,
	}
}
