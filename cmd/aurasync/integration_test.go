//go:build integration

// cmd/aurasync/integration_test.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sonnibytes/aura-github-sync/internal/cache"
	"github.com/sonnibytes/aura-github-sync/internal/database"
	"github.com/sonnibytes/aura-github-sync/internal/github"
	"github.com/sonnibytes/aura-github-sync/internal/syncer"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	// Start a postgres container
	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	teardown := func() {
		dbpool.Close()
		require.NoError(t, pgContainer.Terminate(ctx))
	}
	return dbpool, teardown
}

func TestFullSync_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	weekStart := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	// Mock GitHub API server covering the whole full-sync call graph.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/test-owner":
			fmt.Fprint(w, `{"login": "test-owner", "public_repos": 1}`)
		case "/user/repos":
			if r.URL.Query().Get("page") != "1" {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[{
				"id": 123, "name": "test-repo", "full_name": "test-owner/test-repo",
				"language": "Go", "fork": false, "archived": false,
				"created_at": "2023-01-01T00:00:00Z", "updated_at": "2024-05-01T00:00:00Z"
			}]`)
		case "/repos/test-owner/test-repo/languages":
			fmt.Fprint(w, `{"Go": 7500, "Makefile": 2500}`)
		case "/repos/test-owner/test-repo/commits":
			fmt.Fprint(w, `[
				{"sha": "abc", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "2024-05-02T12:00:00Z"}, "message": "feat: new feature"}, "html_url": "url1"},
				{"sha": "def", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "2024-05-01T12:00:00Z"}, "message": "fix: a bug"}, "html_url": "url2"}
			]`)
		case "/repos/test-owner/test-repo/stats/commit_activity":
			w.Header().Set("ETag", `W/"v1"`)
			json.NewEncoder(w).Encode([]map[string]any{
				{"week": weekStart.Unix(), "total": 7, "days": []int{1, 1, 1, 1, 1, 1, 1}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient := github.NewClient(github.Config{
		BaseURL:  server.URL,
		CacheTTL: time.Minute,
	}, cache.NewMemory(), logger)

	appSyncer := syncer.NewSyncer(dbpool, ghClient, logger, syncer.Options{
		Username:         "test-owner",
		CommitStaleAfter: 6 * time.Hour,
		WeeklyStaleAfter: 24 * time.Hour,
		RepoStaleAfter:   time.Hour,
	})

	// --- ACT ---
	summary, err := appSyncer.FullSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 0, summary.Failed)

	// --- ASSERT ---
	q := database.New(dbpool)

	repo, err := q.GetRepositoryByFullName(ctx, "test-owner/test-repo")
	require.NoError(t, err)
	assert.Equal(t, int64(123), repo.GithubID)
	assert.Equal(t, "test-repo", repo.Name)
	assert.Equal(t, 2, repo.TotalCommits)
	assert.Equal(t, "abc", repo.LastCommitSHA)
	require.NotNil(t, repo.CommitsSyncedAt)

	langs, err := q.ListLanguages(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "Go", langs[0].Language)
	assert.InDelta(t, 75.0, langs[0].Percentage, 0.001)

	// The repo has no system link, so no weekly tracking and no weeks.
	assert.False(t, repo.TrackWeekly)
	weeks, err := q.ListCommitWeeks(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, weeks)

	// Re-running against a fresh repository changes nothing.
	summary, err = appSyncer.FullSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
}
