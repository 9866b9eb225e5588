// cmd/aurasync/sync.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonnibytes/aura-github-sync/internal/syncer"
)

type syncOpts struct {
	username    string
	force       bool
	commitsOnly bool
	weeklyOnly  bool
	systemOnly  bool
	limit       int
}

func newSyncCmd() *cobra.Command {
	opts := &syncOpts{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization batch",
		Long: `Run one synchronization batch against the GitHub API.

By default the full pipeline runs: repository metadata, commit summaries
and weekly activity. --commits-only and --weekly-only restrict the run to
one stage; --force ignores staleness and refreshes everything selected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.commitsOnly && opts.weeklyOnly {
				return fmt.Errorf("--commits-only and --weekly-only are mutually exclusive")
			}
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "GitHub account to sync (defaults to GITHUB_USERNAME)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "ignore staleness thresholds and refresh everything")
	cmd.Flags().BoolVar(&opts.commitsOnly, "commits-only", false, "only refresh commit summaries")
	cmd.Flags().BoolVar(&opts.weeklyOnly, "weekly-only", false, "only refresh weekly activity")
	cmd.Flags().BoolVar(&opts.systemOnly, "system-only", false, "restrict to system-linked repositories")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "cap the number of repositories listed upstream (0 = no cap)")

	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOpts) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	username := opts.username
	if username == "" {
		username = a.cfg.GithubUsername
	}
	limit := opts.limit
	if limit == 0 {
		limit = a.cfg.RepoLimit
	}

	s := syncer.NewSyncer(a.pool, a.gh, a.logger, syncer.Options{
		Username:         username,
		Force:            opts.force,
		Limit:            limit,
		SystemOnly:       opts.systemOnly,
		CommitStaleAfter: a.cfg.CommitStaleAfter,
		WeeklyStaleAfter: a.cfg.WeeklyStaleAfter,
		RepoStaleAfter:   a.cfg.RepoStaleAfter,
		RepoDelay:        a.cfg.RepoDelay,
	})

	var summary *syncer.Summary
	switch {
	case opts.commitsOnly:
		summary, err = s.SyncCommits(ctx)
	case opts.weeklyOnly:
		summary, err = s.SyncWeekly(ctx)
	default:
		summary, err = s.FullSync(ctx)
	}

	if summary != nil {
		printSummary(cmd, summary)
	}
	return err
}

func printSummary(cmd *cobra.Command, summary *syncer.Summary) {
	cmd.Printf("synced: %d (created %d), unchanged: %d, computing: %d, failed: %d\n",
		summary.Synced, summary.Created, summary.Unchanged, summary.Computing, summary.Failed)
	for _, r := range summary.Results {
		if r.Outcome == syncer.OutcomeFailed {
			cmd.Printf("  %s: %v\n", r.FullName, r.Err)
		}
	}
}
