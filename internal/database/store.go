// internal/database/store.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sonnibytes/aura-github-sync/internal/model"
)

// Store is the pgx-backed Querier implementation.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store { return &Store{db: db} }

var _ Querier = (*Store)(nil)

const repoColumns = `
	id, github_id, name, full_name, description, html_url, clone_url,
	homepage, language, size_kb, stars, forks, watchers,
	is_private, is_fork, is_archived,
	github_created_at, github_updated_at, last_synced_at,
	total_commits, last_commit_date, last_commit_sha, last_commit_message,
	commits_last_30_days, commits_last_year, avg_commits_per_month,
	commits_synced_at, commits_page_cursor,
	weekly_synced_at, weekly_etag, track_weekly, system_slug`

func scanRepository(row pgx.Row) (*model.Repository, error) {
	var r model.Repository
	err := row.Scan(
		&r.ID, &r.GithubID, &r.Name, &r.FullName, &r.Description, &r.HTMLURL, &r.CloneURL,
		&r.Homepage, &r.Language, &r.SizeKB, &r.Stars, &r.Forks, &r.Watchers,
		&r.Private, &r.Fork, &r.Archived,
		&r.GithubCreatedAt, &r.GithubUpdatedAt, &r.LastSyncedAt,
		&r.TotalCommits, &r.LastCommitDate, &r.LastCommitSHA, &r.LastCommitMessage,
		&r.CommitsLast30Days, &r.CommitsLastYear, &r.AvgCommitsPerMonth,
		&r.CommitsSyncedAt, &r.CommitsPageCursor,
		&r.WeeklySyncedAt, &r.WeeklyETag, &r.TrackWeekly, &r.SystemSlug,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) collectRepositories(ctx context.Context, query string, args ...any) ([]model.Repository, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *r)
	}
	return repos, rows.Err()
}

func (s *Store) GetRepositoryByGithubID(ctx context.Context, githubID int64) (*model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE github_id = $1`
	return scanRepository(s.db.QueryRow(ctx, query, githubID))
}

func (s *Store) GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE full_name = $1`
	return scanRepository(s.db.QueryRow(ctx, query, fullName))
}

func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories ORDER BY full_name`
	return s.collectRepositories(ctx, query)
}

func (s *Store) ListReposForCommitSync(ctx context.Context, staleBefore *time.Time, systemOnly bool) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + `
		FROM repositories
		WHERE NOT is_fork AND NOT is_archived
		  AND ($1::timestamptz IS NULL OR commits_synced_at IS NULL OR commits_synced_at < $1)
		  AND (NOT $2::boolean OR system_slug IS NOT NULL)
		ORDER BY full_name`
	return s.collectRepositories(ctx, query, staleBefore, systemOnly)
}

func (s *Store) ListWeeklySyncCandidates(ctx context.Context, staleBefore time.Time) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + `
		FROM repositories
		WHERE track_weekly AND NOT is_fork AND NOT is_archived
		  AND (weekly_synced_at IS NULL OR weekly_synced_at < $1)
		ORDER BY full_name`
	return s.collectRepositories(ctx, query, staleBefore)
}

func (s *Store) ListReposWithWeeklyData(ctx context.Context) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + `
		FROM repositories r
		WHERE EXISTS (SELECT 1 FROM commit_weeks w WHERE w.repository_id = r.id)
		ORDER BY full_name`
	return s.collectRepositories(ctx, query)
}

func (s *Store) UpsertRepository(ctx context.Context, repo *model.Repository) (*model.Repository, bool, error) {
	existing, err := s.GetRepositoryByGithubID(ctx, repo.GithubID)
	if errors.Is(err, pgx.ErrNoRows) {
		query := `INSERT INTO repositories (
				github_id, name, full_name, description, html_url, clone_url,
				homepage, language, size_kb, stars, forks, watchers,
				is_private, is_fork, is_archived,
				github_created_at, github_updated_at, last_synced_at, system_slug
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now(),$18)
			RETURNING ` + repoColumns
		created, err := scanRepository(s.db.QueryRow(ctx, query,
			repo.GithubID, repo.Name, repo.FullName, repo.Description, repo.HTMLURL, repo.CloneURL,
			repo.Homepage, repo.Language, repo.SizeKB, repo.Stars, repo.Forks, repo.Watchers,
			repo.Private, repo.Fork, repo.Archived,
			repo.GithubCreatedAt, repo.GithubUpdatedAt, repo.SystemSlug,
		))
		if err != nil {
			return nil, false, fmt.Errorf("insert repository %s: %w", repo.FullName, err)
		}
		return created, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	query := `UPDATE repositories SET
			name = $2, full_name = $3, description = $4, html_url = $5, clone_url = $6,
			homepage = $7, language = $8, size_kb = $9, stars = $10, forks = $11,
			watchers = $12, is_private = $13, is_fork = $14, is_archived = $15,
			github_created_at = $16, github_updated_at = $17, last_synced_at = now()
		WHERE id = $1
		RETURNING ` + repoColumns
	updated, err := scanRepository(s.db.QueryRow(ctx, query,
		existing.ID,
		repo.Name, repo.FullName, repo.Description, repo.HTMLURL, repo.CloneURL,
		repo.Homepage, repo.Language, repo.SizeKB, repo.Stars, repo.Forks,
		repo.Watchers, repo.Private, repo.Fork, repo.Archived,
		repo.GithubCreatedAt, repo.GithubUpdatedAt,
	))
	if err != nil {
		return nil, false, fmt.Errorf("update repository %s: %w", repo.FullName, err)
	}
	return updated, false, nil
}

func (s *Store) UpdateCommitSummary(ctx context.Context, repoID int64, summary model.CommitSummary, syncedAt time.Time) error {
	query := `UPDATE repositories SET
			total_commits = $2, last_commit_date = $3, last_commit_sha = $4,
			last_commit_message = $5, commits_last_30_days = $6,
			commits_last_year = $7, avg_commits_per_month = $8,
			commits_page_cursor = $9, commits_synced_at = $10
		WHERE id = $1`
	_, err := s.db.Exec(ctx, query, repoID,
		summary.TotalCommits, summary.LastCommitDate, summary.LastCommitSHA,
		summary.LastCommitMessage, summary.CommitsLast30Days,
		summary.CommitsLastYear, summary.AvgCommitsPerMonth,
		summary.PageCursor, syncedAt,
	)
	return err
}

func (s *Store) ApplyReconciledSummary(ctx context.Context, repoID int64, acc ReconciledSummary) error {
	query := `UPDATE repositories SET
			total_commits = $2, commits_last_30_days = $3,
			commits_last_year = $4, avg_commits_per_month = $5
		WHERE id = $1`
	_, err := s.db.Exec(ctx, query, repoID,
		acc.TotalCommits, acc.CommitsLast30Days, acc.CommitsLastYear, acc.AvgCommitsPerMonth,
	)
	return err
}

func (s *Store) UpdateWeeklySyncState(ctx context.Context, repoID int64, etag string, syncedAt time.Time) error {
	query := `UPDATE repositories SET weekly_etag = $2, weekly_synced_at = $3 WHERE id = $1`
	_, err := s.db.Exec(ctx, query, repoID, etag, syncedAt)
	return err
}

func (s *Store) SetWeeklyTracking(ctx context.Context, repoID int64, enabled bool) error {
	query := `UPDATE repositories SET track_weekly = $2 WHERE id = $1`
	_, err := s.db.Exec(ctx, query, repoID, enabled)
	return err
}

func (s *Store) UpsertCommitWeek(ctx context.Context, wk model.CommitWeek) (WeekUpsert, error) {
	var (
		id      int64
		current int
	)
	lookup := `SELECT id, commit_count FROM commit_weeks
		WHERE repository_id = $1 AND year = $2 AND week = $3`
	err := s.db.QueryRow(ctx, lookup, wk.RepositoryID, wk.Year, wk.Week).Scan(&id, &current)

	if errors.Is(err, pgx.ErrNoRows) {
		insert := `INSERT INTO commit_weeks (
				repository_id, year, week, month, month_name, quarter,
				week_start, week_end, commit_count,
				lines_added, lines_deleted, files_changed,
				last_synced_at, etag
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),$13)`
		_, err := s.db.Exec(ctx, insert,
			wk.RepositoryID, wk.Year, wk.Week, wk.Month, wk.MonthName, wk.Quarter,
			wk.WeekStart, wk.WeekEnd, wk.CommitCount,
			wk.LinesAdded, wk.LinesDeleted, wk.FilesChanged, wk.ETag,
		)
		if err != nil {
			return WeekUnchanged, err
		}
		return WeekCreated, nil
	}
	if err != nil {
		return WeekUnchanged, err
	}

	// GitHub corrects recent weeks retroactively while they are still in
	// progress; only a changed count warrants rewriting the row.
	if current == wk.CommitCount {
		return WeekUnchanged, nil
	}

	update := `UPDATE commit_weeks SET commit_count = $2, last_synced_at = now() WHERE id = $1`
	if _, err := s.db.Exec(ctx, update, id, wk.CommitCount); err != nil {
		return WeekUnchanged, err
	}
	return WeekUpdated, nil
}

func (s *Store) ListCommitWeeks(ctx context.Context, repoID int64) ([]model.CommitWeek, error) {
	query := `SELECT id, repository_id, year, week, month, month_name, quarter,
			week_start, week_end, commit_count,
			lines_added, lines_deleted, files_changed, last_synced_at, etag
		FROM commit_weeks
		WHERE repository_id = $1
		ORDER BY year DESC, week DESC`
	rows, err := s.db.Query(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []model.CommitWeek
	for rows.Next() {
		var w model.CommitWeek
		err := rows.Scan(
			&w.ID, &w.RepositoryID, &w.Year, &w.Week, &w.Month, &w.MonthName, &w.Quarter,
			&w.WeekStart, &w.WeekEnd, &w.CommitCount,
			&w.LinesAdded, &w.LinesDeleted, &w.FilesChanged, &w.LastSyncedAt, &w.ETag,
		)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (s *Store) ReplaceLanguages(ctx context.Context, repoID int64, langs []model.RepoLanguage) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM repo_languages WHERE repository_id = $1`, repoID); err != nil {
		return err
	}
	for _, l := range langs {
		_, err := s.db.Exec(ctx,
			`INSERT INTO repo_languages (repository_id, language, bytes, percentage) VALUES ($1,$2,$3,$4)`,
			repoID, l.Language, l.Bytes, l.Percentage,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListLanguages(ctx context.Context, repoID int64) ([]model.RepoLanguage, error) {
	query := `SELECT id, repository_id, language, bytes, percentage
		FROM repo_languages WHERE repository_id = $1 ORDER BY bytes DESC`
	rows, err := s.db.Query(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var langs []model.RepoLanguage
	for rows.Next() {
		var l model.RepoLanguage
		if err := rows.Scan(&l.ID, &l.RepositoryID, &l.Language, &l.Bytes, &l.Percentage); err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}
