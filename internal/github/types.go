// internal/github/types.go
package github

import (
	"time"

	"github.com/sonnibytes/aura-github-sync/internal/model"
)

// User is the subset of the users/{username} payload the sync cares about.
type User struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repo mirrors the repository payload of the GitHub REST API.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	CloneURL    string `json:"clone_url"`
	Homepage    string `json:"homepage"`
	Language    string `json:"language"`
	Size        int    `json:"size"`

	StargazersCount int `json:"stargazers_count"`
	ForksCount      int `json:"forks_count"`
	WatchersCount   int `json:"watchers_count"`

	Private  bool `json:"private"`
	Fork     bool `json:"fork"`
	Archived bool `json:"archived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner returns the owner half of the full name, or "" if it is malformed.
func (r *Repo) Owner() string {
	for i := 0; i < len(r.FullName); i++ {
		if r.FullName[i] == '/' {
			return r.FullName[:i]
		}
	}
	return ""
}

// ToModel translates the API payload into the local repository record.
// Sync bookkeeping fields are left zero; the store preserves them on update.
func (r *Repo) ToModel() model.Repository {
	return model.Repository{
		GithubID:        r.ID,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     r.Description,
		HTMLURL:         r.HTMLURL,
		CloneURL:        r.CloneURL,
		Homepage:        r.Homepage,
		Language:        r.Language,
		SizeKB:          r.Size,
		Stars:           r.StargazersCount,
		Forks:           r.ForksCount,
		Watchers:        r.WatchersCount,
		Private:         r.Private,
		Fork:            r.Fork,
		Archived:        r.Archived,
		GithubCreatedAt: r.CreatedAt,
		GithubUpdatedAt: r.UpdatedAt,
	}
}

// Commit mirrors the commits list payload.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}
