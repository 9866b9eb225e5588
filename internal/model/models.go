// internal/model/models.go
package model

import "time"

// Repository is the local record for one tracked GitHub repository.
//
// The commit summary fields are estimates produced by the sampling algorithm
// in internal/stats; once weekly data exists they can be reconciled against
// the CommitWeek series, but the two are never merged silently.
type Repository struct {
	ID       int64
	GithubID int64 `json:"github_id"`
	Name     string
	FullName string `json:"full_name"`

	Description string
	HTMLURL     string `json:"html_url"`
	CloneURL    string `json:"clone_url"`
	Homepage    string
	Language    string
	SizeKB      int `json:"size_kb"`

	// Point-in-time popularity snapshots, overwritten on every sync.
	Stars    int
	Forks    int
	Watchers int

	Private  bool
	Fork     bool
	Archived bool

	GithubCreatedAt time.Time `json:"github_created_at"`
	GithubUpdatedAt time.Time `json:"github_updated_at"`
	LastSyncedAt    *time.Time

	// Commit summary (fast, approximate).
	TotalCommits       int
	LastCommitDate     *time.Time
	LastCommitSHA      string
	LastCommitMessage  string
	CommitsLast30Days  int
	CommitsLastYear    int
	AvgCommitsPerMonth float64
	CommitsSyncedAt    *time.Time
	CommitsPageCursor  string

	// Weekly tracking state.
	WeeklySyncedAt *time.Time
	WeeklyETag     string
	TrackWeekly    bool

	// Optional link to a portfolio system; a non-nil slug is one of the
	// conditions for enabling weekly tracking.
	SystemSlug *string
}

// QualifiesForWeeklyTracking reports whether detailed weekly tracking should
// be enabled: fork-free, non-archived, and system-linked.
func (r *Repository) QualifiesForWeeklyTracking() bool {
	return !r.Fork && !r.Archived && r.SystemSlug != nil
}

// CommitSummary carries the output of a commit sync pass into the store.
type CommitSummary struct {
	TotalCommits       int
	LastCommitDate     *time.Time
	LastCommitSHA      string
	LastCommitMessage  string
	CommitsLast30Days  int
	CommitsLastYear    int
	AvgCommitsPerMonth float64
	PageCursor         string
}

// CommitWeek is one time bucket of the per-repository weekly series, keyed by
// the ISO (year, week) pair. The series is sparse: a missing (year, week)
// means "not yet synced", only commit_count = 0 asserts zero activity.
type CommitWeek struct {
	ID           int64
	RepositoryID int64
	Year         int
	Week         int // ISO week number, 1-53

	// Calendar metadata derived once at creation from the week start.
	Month     int
	MonthName string
	Quarter   int
	WeekStart time.Time
	WeekEnd   time.Time

	CommitCount int

	// Reserved for future per-week detail; the base sync leaves them at zero.
	LinesAdded   int
	LinesDeleted int
	FilesChanged int

	LastSyncedAt time.Time
	ETag         string
}

// NewCommitWeek builds a CommitWeek from a week-start date and commit count,
// deriving the ISO key and calendar metadata.
func NewCommitWeek(repoID int64, weekStart time.Time, commits int) CommitWeek {
	year, week := weekStart.ISOWeek()
	month := int(weekStart.Month())
	return CommitWeek{
		RepositoryID: repoID,
		Year:         year,
		Week:         week,
		Month:        month,
		MonthName:    weekStart.Month().String(),
		Quarter:      (month-1)/3 + 1,
		WeekStart:    weekStart,
		WeekEnd:      weekStart.AddDate(0, 0, 6),
		CommitCount:  commits,
	}
}

// RepoLanguage is one row of a repository's language breakdown. The whole set
// is replaced on each language sync, never patched incrementally.
type RepoLanguage struct {
	ID           int64
	RepositoryID int64
	Language     string
	Bytes        int64
	Percentage   float64
}
