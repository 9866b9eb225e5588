// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sonnibytes/aura-github-sync/internal/database"
	apperrors "github.com/sonnibytes/aura-github-sync/internal/errors"
	"github.com/sonnibytes/aura-github-sync/internal/github"
	"github.com/sonnibytes/aura-github-sync/internal/model"
	"github.com/sonnibytes/aura-github-sync/internal/stats"
)

// GitHub is the slice of the API client the orchestrator depends on.
type GitHub interface {
	GetUser(ctx context.Context, username string) (*github.User, error)
	ListRepositories(ctx context.Context, limit int) ([]github.Repo, error)
	GetRepository(ctx context.Context, owner, name string) (*github.Repo, error)
	GetLanguages(ctx context.Context, owner, name string) (map[string]int64, error)
	ListCommits(ctx context.Context, owner, name string, since *time.Time, perPage int) ([]github.Commit, error)
	GetWeeklyCommitActivity(ctx context.Context, owner, name, etag string) (*github.ActivityResult, error)
}

// Options are the per-run knobs of the orchestrator.
type Options struct {
	Username   string
	Force      bool
	Limit      int
	SystemOnly bool

	CommitStaleAfter time.Duration
	WeeklyStaleAfter time.Duration
	RepoStaleAfter   time.Duration

	// RepoDelay is the pause between repositories, there to stay inside
	// the upstream rate limit.
	RepoDelay time.Duration
}

// Outcome classifies what one repository's pass did.
type Outcome string

const (
	OutcomeSynced    Outcome = "synced"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeComputing Outcome = "computing"
	OutcomeFailed    Outcome = "failed"
)

// RepoResult is one repository's entry in the run summary.
type RepoResult struct {
	FullName string
	Outcome  Outcome
	Err      error
}

// Summary aggregates a batch run. Computing is counted separately from
// failures so operators can tell transient upstream delay from real errors.
type Summary struct {
	Synced    int
	Created   int
	Unchanged int
	Computing int
	Failed    int
	Results   []RepoResult
}

func (s *Summary) record(fullName string, outcome Outcome, err error) {
	s.Results = append(s.Results, RepoResult{FullName: fullName, Outcome: outcome, Err: err})
	switch outcome {
	case OutcomeSynced:
		s.Synced++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeComputing:
		s.Computing++
	case OutcomeFailed:
		s.Failed++
	}
}

// Syncer orchestrates batch synchronization of GitHub data into the store.
// It is strictly sequential: repositories are processed one at a time with a
// fixed delay in between.
type Syncer struct {
	pool   *pgxpool.Pool
	db     database.Querier
	gh     GitHub
	est    *stats.Estimator
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// NewSyncer creates a Syncer backed by the given pool and API client.
func NewSyncer(pool *pgxpool.Pool, gh GitHub, logger *slog.Logger, opts Options) *Syncer {
	return &Syncer{
		pool:   pool,
		db:     database.New(pool),
		gh:     gh,
		est:    stats.NewEstimator(gh, logger),
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// withTx runs fn against a transaction-scoped Querier, so each repository's
// persistence is self-contained and a kill mid-batch leaves the committed
// repositories intact. Without a pool, fn runs directly on the Querier.
func (s *Syncer) withTx(ctx context.Context, fn func(database.Querier) error) error {
	if s.pool == nil {
		return fn(s.db)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed.

	if err := fn(database.New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pause sleeps between repositories, skipping the first one.
func (s *Syncer) pause(ctx context.Context, i int) error {
	if i == 0 || s.opts.RepoDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.opts.RepoDelay):
		return nil
	}
}

func isRateLimit(err error) bool {
	var rl *apperrors.RateLimitError
	return errors.As(err, &rl)
}

func splitFullName(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("malformed repository full name %q", fullName)
	}
	return owner, name, nil
}

// SyncCommits runs the commits-only mode: refresh the estimated commit
// summary of every stale repository, chaining into a weekly sync where the
// repository qualifies for detailed tracking.
func (s *Syncer) SyncCommits(ctx context.Context) (*Summary, error) {
	var staleBefore *time.Time
	if !s.opts.Force {
		cutoff := s.now().Add(-s.opts.CommitStaleAfter)
		staleBefore = &cutoff
	}

	repos, err := s.db.ListReposForCommitSync(ctx, staleBefore, s.opts.SystemOnly)
	if err != nil {
		return nil, err
	}
	s.logger.Info("commit sync starting", "repos", len(repos), "force", s.opts.Force)

	summary := &Summary{}
	for i := range repos {
		repo := &repos[i]
		if err := s.pause(ctx, i); err != nil {
			return summary, err
		}

		err := s.withTx(ctx, func(q database.Querier) error {
			return s.syncCommits(ctx, q, repo)
		})
		if err != nil {
			if isRateLimit(err) {
				return summary, err
			}
			s.logger.Error("commit sync failed", "repo", repo.FullName, "error", err)
			summary.record(repo.FullName, OutcomeFailed, err)
			continue
		}
		if !repo.TrackWeekly {
			summary.record(repo.FullName, OutcomeSynced, nil)
			continue
		}

		outcome, err := s.weeklyPass(ctx, repo)
		switch {
		case isRateLimit(err):
			summary.record(repo.FullName, OutcomeSynced, nil)
			return summary, err
		case err != nil:
			s.logger.Error("chained weekly sync failed", "repo", repo.FullName, "error", err)
			summary.record(repo.FullName, OutcomeFailed, err)
		case outcome == OutcomeComputing:
			summary.record(repo.FullName, OutcomeSynced, nil)
			summary.Computing++
		default:
			summary.record(repo.FullName, OutcomeSynced, nil)
		}
	}
	return summary, nil
}

// syncCommits refreshes one repository's estimated summary and its weekly
// tracking flag. The caller provides the transaction scope.
func (s *Syncer) syncCommits(ctx context.Context, q database.Querier, repo *model.Repository) error {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return err
	}

	logger := s.logger.With("repo", repo.FullName)
	logger.Info("syncing commit summary")

	est, err := s.est.Estimate(ctx, owner, name, repo.GithubCreatedAt)
	if err != nil {
		return err
	}
	if err := q.UpdateCommitSummary(ctx, repo.ID, *est, s.now()); err != nil {
		return err
	}
	logger.Info("commit summary updated", "total", est.TotalCommits, "last_30_days", est.CommitsLast30Days)

	if enabled := repo.QualifiesForWeeklyTracking(); enabled != repo.TrackWeekly {
		if err := q.SetWeeklyTracking(ctx, repo.ID, enabled); err != nil {
			return err
		}
		repo.TrackWeekly = enabled
	}
	return nil
}

// SyncWeekly runs the weekly-only mode over every tracking-enabled
// repository whose weekly series is stale.
func (s *Syncer) SyncWeekly(ctx context.Context) (*Summary, error) {
	cutoff := s.now().Add(-s.opts.WeeklyStaleAfter)
	if s.opts.Force {
		cutoff = s.now()
	}

	repos, err := s.db.ListWeeklySyncCandidates(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("weekly sync starting", "repos", len(repos))

	summary := &Summary{}
	for i := range repos {
		repo := &repos[i]
		if err := s.pause(ctx, i); err != nil {
			return summary, err
		}

		outcome, err := s.weeklyPass(ctx, repo)
		if err != nil {
			if isRateLimit(err) {
				return summary, err
			}
			s.logger.Error("weekly sync failed", "repo", repo.FullName, "error", err)
			summary.record(repo.FullName, OutcomeFailed, err)
			continue
		}
		summary.record(repo.FullName, outcome, nil)
	}
	return summary, nil
}

// weeklyPass wraps syncWeekly in its own transaction.
func (s *Syncer) weeklyPass(ctx context.Context, repo *model.Repository) (Outcome, error) {
	var outcome Outcome
	err := s.withTx(ctx, func(q database.Querier) error {
		var err error
		outcome, err = s.syncWeekly(ctx, q, repo)
		return err
	})
	return outcome, err
}

// syncWeekly performs one conditional weekly-activity fetch and persists the
// result. The three protocol outcomes map onto the store like this:
//
//	success:      upsert every returned week, store the new ETag, bump the timestamp
//	not modified: keep all rows and the ETag, bump only the timestamp
//	computing:    touch nothing at all; the next scheduled run retries
func (s *Syncer) syncWeekly(ctx context.Context, q database.Querier, repo *model.Repository) (Outcome, error) {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return OutcomeFailed, err
	}

	logger := s.logger.With("repo", repo.FullName)

	result, err := s.gh.GetWeeklyCommitActivity(ctx, owner, name, repo.WeeklyETag)
	if err != nil {
		return OutcomeFailed, err
	}

	switch result.Status {
	case github.ActivityComputing:
		logger.Info("weekly stats still computing upstream, skipping for this pass")
		return OutcomeComputing, nil

	case github.ActivityNotModified:
		if err := q.UpdateWeeklySyncState(ctx, repo.ID, result.ETag, s.now()); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeUnchanged, nil

	case github.ActivitySuccess:
		var created, updated int
		for _, wk := range result.Weeks {
			cw := model.NewCommitWeek(repo.ID, wk.WeekStart, wk.Total)
			res, err := q.UpsertCommitWeek(ctx, cw)
			if err != nil {
				return OutcomeFailed, err
			}
			switch res {
			case database.WeekCreated:
				created++
			case database.WeekUpdated:
				updated++
			}
		}
		if err := q.UpdateWeeklySyncState(ctx, repo.ID, result.ETag, s.now()); err != nil {
			return OutcomeFailed, err
		}
		logger.Info("weekly series persisted", "weeks", len(result.Weeks), "created", created, "updated", updated)
		return OutcomeSynced, nil

	default:
		return OutcomeFailed, fmt.Errorf("unexpected activity status %v", result.Status)
	}
}
