// internal/github/activity_test.go
package github

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetWeeklyCommitActivity(t *testing.T) {
	t.Run("success captures the ETag and converts buckets", func(t *testing.T) {
		// Monday 2024-01-01 00:00:00 UTC, ISO week 1 of 2024.
		weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/sonni/aura/stats/commit_activity", r.URL.Path)
			assert.Empty(t, r.Header.Get("If-None-Match"))
			w.Header().Set("ETag", `W/"abc123"`)
			fmt.Fprintf(w, `[{"week": %d, "total": 5, "days": [1,0,2,0,1,1,0]}]`, weekStart.Unix())
		})
		client, _ := setupTestClient(t, handler)

		result, err := client.GetWeeklyCommitActivity(context.Background(), "sonni", "aura", "")

		require.NoError(t, err)
		assert.Equal(t, ActivitySuccess, result.Status)
		assert.Equal(t, `W/"abc123"`, result.ETag)
		require.Len(t, result.Weeks, 1)

		wk := result.Weeks[0]
		assert.Equal(t, 2024, wk.Year)
		assert.Equal(t, 1, wk.Week)
		assert.Equal(t, weekStart, wk.WeekStart)
		assert.Equal(t, weekStart.AddDate(0, 0, 6), wk.WeekEnd)
		assert.Equal(t, 5, wk.Total)
	})

	t.Run("304 sends the stored ETag and preserves it", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, `W/"abc123"`, r.Header.Get("If-None-Match"))
			w.WriteHeader(http.StatusNotModified)
		})
		client, _ := setupTestClient(t, handler)

		result, err := client.GetWeeklyCommitActivity(context.Background(), "sonni", "aura", `W/"abc123"`)

		require.NoError(t, err)
		assert.Equal(t, ActivityNotModified, result.Status)
		assert.Equal(t, `W/"abc123"`, result.ETag)
		assert.Empty(t, result.Weeks)
	})

	t.Run("202 is a retry-later outcome, not an error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		client, _ := setupTestClient(t, handler)

		result, err := client.GetWeeklyCommitActivity(context.Background(), "sonni", "aura", "")

		require.NoError(t, err)
		assert.Equal(t, ActivityComputing, result.Status)
		assert.Equal(t, computingRetryDelay, result.RetryAfter)
		assert.Empty(t, result.Weeks)
	})
}

func TestBucketToWeek(t *testing.T) {
	cases := []struct {
		name     string
		start    time.Time
		wantYear int
		wantWeek int
	}{
		{"first ISO week of 2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2024, 1},
		{"year boundary belongs to previous ISO year", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2022, 52},
		{"mid-year week", time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), 2024, 29},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wk := bucketToWeek(rawActivityBucket{Week: tc.start.Unix(), Total: 3})

			assert.Equal(t, tc.wantYear, wk.Year)
			assert.Equal(t, tc.wantWeek, wk.Week)
			assert.Equal(t, tc.start, wk.WeekStart)
			assert.Equal(t, tc.start.AddDate(0, 0, 6), wk.WeekEnd)
		})
	}
}
