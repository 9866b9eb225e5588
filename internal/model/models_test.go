// internal/model/models_test.go
package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCommitWeek_DerivedMetadata(t *testing.T) {
	// Every month maps to the right quarter and the week end is always
	// start + 6 days.
	for month := time.January; month <= time.December; month++ {
		start := time.Date(2024, month, 3, 0, 0, 0, 0, time.UTC)
		wk := NewCommitWeek(1, start, 4)

		assert.Equal(t, int(month), wk.Month)
		assert.Equal(t, month.String(), wk.MonthName)
		assert.Equal(t, (int(month)-1)/3+1, wk.Quarter)
		assert.Equal(t, start.AddDate(0, 0, 6), wk.WeekEnd)
	}
}

func TestNewCommitWeek_ISOKey(t *testing.T) {
	// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	wk := NewCommitWeek(7, start, 2)

	assert.Equal(t, 2025, wk.Year)
	assert.Equal(t, 1, wk.Week)
	assert.Equal(t, 12, wk.Month, "calendar metadata still comes from the start date")
	assert.Equal(t, 4, wk.Quarter)
	assert.Equal(t, int64(7), wk.RepositoryID)
	assert.Equal(t, 2, wk.CommitCount)
}

func TestQualifiesForWeeklyTracking(t *testing.T) {
	slug := "aura-portfolio"

	cases := []struct {
		name string
		repo Repository
		want bool
	}{
		{"system-linked active repo", Repository{SystemSlug: &slug}, true},
		{"fork never qualifies", Repository{SystemSlug: &slug, Fork: true}, false},
		{"archived never qualifies", Repository{SystemSlug: &slug, Archived: true}, false},
		{"unlinked repo never qualifies", Repository{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.repo.QualifiesForWeeklyTracking())
		})
	}
}
