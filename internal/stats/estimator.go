// internal/stats/estimator.go
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/sonnibytes/aura-github-sync/internal/github"
	"github.com/sonnibytes/aura-github-sync/internal/model"
)

const (
	// sampleSize is the single page of recent commits the estimator fetches.
	// A result below this is the exact total; at exactly this, the true
	// total is unknown and gets extrapolated.
	sampleSize = 100

	// minMonthlyRate is the floor of the extrapolation formula. The formula
	// (ageMonths x max(10, recent/3)) is a legacy heuristic carried over
	// unchanged; it has no calibrated derivation.
	minMonthlyRate = 10
)

// CommitLister is the slice of the GitHub client the estimator needs.
type CommitLister interface {
	ListCommits(ctx context.Context, owner, name string, since *time.Time, perPage int) ([]github.Commit, error)
}

// Estimator computes approximate commit statistics from sampled commit
// pages, avoiding full pagination through a repository's history.
type Estimator struct {
	gh     CommitLister
	logger *slog.Logger
	now    func() time.Time
}

func NewEstimator(gh CommitLister, logger *slog.Logger) *Estimator {
	return &Estimator{gh: gh, logger: logger, now: time.Now}
}

// Estimate builds a commit summary for one repository. The 30-day and 1-year
// counts are capped at 100 by the page limit; busier repositories
// under-report, which is an accepted approximation of this path.
func (e *Estimator) Estimate(ctx context.Context, owner, name string, createdAt time.Time) (*model.CommitSummary, error) {
	recent, err := e.gh.ListCommits(ctx, owner, name, nil, sampleSize)
	if err != nil {
		return nil, err
	}

	now := e.now()
	months := ageMonths(createdAt, now)

	total := len(recent)
	if total == sampleSize {
		total = extrapolateTotal(months, len(recent))
		e.logger.Debug("extrapolated commit total", "repo", owner+"/"+name, "estimate", total)
	}

	last30, err := e.countSince(ctx, owner, name, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	lastYear, err := e.countSince(ctx, owner, name, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}

	summary := &model.CommitSummary{
		TotalCommits:       total,
		CommitsLast30Days:  last30,
		CommitsLastYear:    lastYear,
		AvgCommitsPerMonth: float64(total) / float64(months),
	}
	if len(recent) > 0 {
		head := recent[0]
		date := head.Commit.Author.Date
		summary.LastCommitDate = &date
		summary.LastCommitSHA = head.SHA
		summary.LastCommitMessage = head.Commit.Message
	}
	return summary, nil
}

func (e *Estimator) countSince(ctx context.Context, owner, name string, since time.Time) (int, error) {
	commits, err := e.gh.ListCommits(ctx, owner, name, &since, sampleSize)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

// extrapolateTotal is the preserved estimation heuristic for repositories
// whose sampled page came back full.
func extrapolateTotal(months, recent int) int {
	rate := recent / 3
	if rate < minMonthlyRate {
		rate = minMonthlyRate
	}
	return months * rate
}

// ageMonths measures repository age in whole 30-day months, never below 1.
func ageMonths(createdAt, now time.Time) int {
	days := int(now.Sub(createdAt).Hours() / 24)
	months := days / 30
	if months < 1 {
		months = 1
	}
	return months
}
