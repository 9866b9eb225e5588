// internal/database/querier.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sonnibytes/aura-github-sync/internal/model"
)

// DBTX is the slice of pgx satisfied by both *pgxpool.Pool and pgx.Tx, so
// the same queries run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WeekUpsert describes what an UpsertCommitWeek call did.
type WeekUpsert int

const (
	WeekCreated WeekUpsert = iota
	WeekUpdated
	WeekUnchanged
)

// Querier is the data-access surface of the sync subsystem. The orchestrator
// and the read-only API depend on this interface; tests substitute a mock.
type Querier interface {
	GetRepositoryByGithubID(ctx context.Context, githubID int64) (*model.Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error)
	ListRepositories(ctx context.Context) ([]model.Repository, error)

	// ListReposForCommitSync selects non-fork, non-archived repositories
	// whose commit summary is missing or older than staleBefore. A nil
	// staleBefore selects all of them (forced run). systemOnly further
	// restricts to system-linked repositories.
	ListReposForCommitSync(ctx context.Context, staleBefore *time.Time, systemOnly bool) ([]model.Repository, error)

	// ListWeeklySyncCandidates selects tracking-enabled repositories whose
	// weekly data is missing or older than staleBefore.
	ListWeeklySyncCandidates(ctx context.Context, staleBefore time.Time) ([]model.Repository, error)

	// ListReposWithWeeklyData selects repositories holding at least one
	// CommitWeek row, for reconciliation.
	ListReposWithWeeklyData(ctx context.Context) ([]model.Repository, error)

	// UpsertRepository matches by GitHub ID: inserts when unknown, otherwise
	// overwrites the metadata snapshot while preserving sync bookkeeping.
	// The bool reports whether a new row was created.
	UpsertRepository(ctx context.Context, repo *model.Repository) (*model.Repository, bool, error)

	UpdateCommitSummary(ctx context.Context, repoID int64, summary model.CommitSummary, syncedAt time.Time) error
	ApplyReconciledSummary(ctx context.Context, repoID int64, acc ReconciledSummary) error
	UpdateWeeklySyncState(ctx context.Context, repoID int64, etag string, syncedAt time.Time) error
	SetWeeklyTracking(ctx context.Context, repoID int64, enabled bool) error

	// UpsertCommitWeek enforces the (repository, year, week) uniqueness
	// invariant: insert when absent, rewrite only when the commit count
	// changed, otherwise leave the row untouched.
	UpsertCommitWeek(ctx context.Context, wk model.CommitWeek) (WeekUpsert, error)
	ListCommitWeeks(ctx context.Context, repoID int64) ([]model.CommitWeek, error)

	// ReplaceLanguages deletes and recreates the full language breakdown.
	ReplaceLanguages(ctx context.Context, repoID int64, langs []model.RepoLanguage) error
	ListLanguages(ctx context.Context, repoID int64) ([]model.RepoLanguage, error)
}

// ReconciledSummary is the slice of summary fields reconciliation rewrites.
// The last-commit fields are left to the estimate path.
type ReconciledSummary struct {
	TotalCommits       int
	CommitsLast30Days  int
	CommitsLastYear    int
	AvgCommitsPerMonth float64
}
