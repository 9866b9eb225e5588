// internal/github/fetch.go
package github

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const perPageMax = 100

// GetUser fetches the profile of the configured GitHub user.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	if err := c.get(ctx, "users/"+username, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListRepositories fetches the authenticated user's own repositories, newest
// activity first, paginating until limit repositories have been collected or
// the listing is exhausted. limit <= 0 means no cap.
func (c *Client) ListRepositories(ctx context.Context, limit int) ([]Repo, error) {
	var all []Repo

	for page := 1; ; page++ {
		params := map[string]string{
			"sort":     "updated",
			"per_page": strconv.Itoa(perPageMax),
			"type":     "owner",
			"page":     strconv.Itoa(page),
		}

		var repos []Repo
		if err := c.get(ctx, "user/repos", params, &repos); err != nil {
			return nil, err
		}
		all = append(all, repos...)

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if len(repos) < perPageMax {
			return all, nil
		}
	}
}

// GetRepository fetches the detail payload for one repository.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*Repo, error) {
	var r Repo
	endpoint := fmt.Sprintf("repos/%s/%s", owner, name)
	if err := c.get(ctx, endpoint, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetLanguages fetches the byte count per language for one repository.
func (c *Client) GetLanguages(ctx context.Context, owner, name string) (map[string]int64, error) {
	langs := map[string]int64{}
	endpoint := fmt.Sprintf("repos/%s/%s/languages", owner, name)
	if err := c.get(ctx, endpoint, nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// ListCommits fetches a single page of up to perPage commits, optionally
// restricted to those authored since the given time. Callers that want the
// sampling behavior of the estimator deliberately fetch only the first page.
func (c *Client) ListCommits(ctx context.Context, owner, name string, since *time.Time, perPage int) ([]Commit, error) {
	if perPage <= 0 || perPage > perPageMax {
		perPage = perPageMax
	}
	params := map[string]string{"per_page": strconv.Itoa(perPage)}
	if since != nil {
		params["since"] = since.UTC().Format(time.RFC3339)
	}

	var commits []Commit
	endpoint := fmt.Sprintf("repos/%s/%s/commits", owner, name)
	if err := c.get(ctx, endpoint, params, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}
