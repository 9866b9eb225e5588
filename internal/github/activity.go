// internal/github/activity.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/sonnibytes/aura-github-sync/internal/errors"
)

// computingRetryDelay is the suggested wait before re-polling a repository
// whose stats GitHub is still computing server-side.
const computingRetryDelay = 5 * time.Second

// ActivityStatus distinguishes the three protocol-level outcomes of the
// weekly commit-activity endpoint. 202 and 304 are states, not errors.
type ActivityStatus int

const (
	// ActivitySuccess: a fresh 52-week series was returned.
	ActivitySuccess ActivityStatus = iota
	// ActivityNotModified: the stored ETag still matches; nothing changed.
	ActivityNotModified
	// ActivityComputing: GitHub has not finished computing the stats yet.
	ActivityComputing
)

func (s ActivityStatus) String() string {
	switch s {
	case ActivitySuccess:
		return "success"
	case ActivityNotModified:
		return "not_modified"
	case ActivityComputing:
		return "computing"
	default:
		return "unknown"
	}
}

// WeekBucket is one calendar week of commit activity, converted from the
// raw unix-timestamp bucket GitHub returns.
type WeekBucket struct {
	Year      int
	Week      int // ISO week number
	WeekStart time.Time
	WeekEnd   time.Time
	Total     int
	Days      []int
}

// ActivityResult is the tagged outcome of GetWeeklyCommitActivity. Weeks is
// populated only for ActivitySuccess; RetryAfter only for ActivityComputing.
type ActivityResult struct {
	Status     ActivityStatus
	ETag       string
	RetryAfter time.Duration
	Weeks      []WeekBucket
}

type rawActivityBucket struct {
	Week  int64 `json:"week"`
	Total int   `json:"total"`
	Days  []int `json:"days"`
}

// GetWeeklyCommitActivity fetches repos/{owner}/{name}/stats/commit_activity,
// sending If-None-Match when a previously stored ETag is supplied. It bypasses
// the response cache: the conditional-request protocol is the freshness
// mechanism for this endpoint.
func (c *Client) GetWeeklyCommitActivity(ctx context.Context, owner, name, etag string) (*ActivityResult, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/stats/commit_activity", owner, name)

	req := c.rest.R().SetContext(ctx)
	if etag != "" {
		req.SetHeader("If-None-Match", etag)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, &apperrors.APIError{Endpoint: endpoint, Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		var raw []rawActivityBucket
		if err := json.Unmarshal(resp.Body(), &raw); err != nil {
			return nil, &apperrors.APIError{Endpoint: endpoint, Err: err}
		}
		weeks := make([]WeekBucket, 0, len(raw))
		for _, b := range raw {
			weeks = append(weeks, bucketToWeek(b))
		}
		c.logger.Info("weekly activity fetched", "repo", owner+"/"+name, "weeks", len(weeks))
		return &ActivityResult{
			Status: ActivitySuccess,
			ETag:   resp.Header().Get("ETag"),
			Weeks:  weeks,
		}, nil

	case http.StatusNotModified:
		c.logger.Info("weekly activity unchanged", "repo", owner+"/"+name)
		return &ActivityResult{Status: ActivityNotModified, ETag: etag}, nil

	case http.StatusAccepted:
		c.logger.Info("weekly activity still computing", "repo", owner+"/"+name)
		return &ActivityResult{Status: ActivityComputing, RetryAfter: computingRetryDelay}, nil

	default:
		if err := checkRateLimit(endpoint, resp); err != nil {
			return nil, err
		}
		return nil, &apperrors.APIError{Endpoint: endpoint, StatusCode: resp.StatusCode()}
	}
}

// bucketToWeek converts a raw bucket: the unix timestamp is the week start,
// the ISO (year, week) comes from the standard ISO calendar rules, and the
// week end is start + 6 days.
func bucketToWeek(b rawActivityBucket) WeekBucket {
	start := time.Unix(b.Week, 0).UTC()
	year, week := start.ISOWeek()
	return WeekBucket{
		Year:      year,
		Week:      week,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 6),
		Total:     b.Total,
		Days:      b.Days,
	}
}
