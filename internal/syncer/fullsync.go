// internal/syncer/fullsync.go
package syncer

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/sonnibytes/aura-github-sync/internal/database"
	"github.com/sonnibytes/aura-github-sync/internal/github"
	"github.com/sonnibytes/aura-github-sync/internal/model"
)

// FullSync runs the full mode: list the account's repositories upstream,
// create the unknown ones, refresh the forced or stale ones, then chain
// commit and weekly syncs for the repositories that warrant them.
func (s *Syncer) FullSync(ctx context.Context) (*Summary, error) {
	user, err := s.gh.GetUser(ctx, s.opts.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Info("full sync starting", "user", user.Login, "public_repos", user.PublicRepos)

	repos, err := s.gh.ListRepositories(ctx, s.opts.Limit)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for i := range repos {
		apiRepo := &repos[i]
		if err := s.pause(ctx, i); err != nil {
			return summary, err
		}

		var outcome Outcome
		err := s.withTx(ctx, func(q database.Querier) error {
			var err error
			outcome, err = s.syncRepository(ctx, q, apiRepo, summary)
			return err
		})
		if err != nil {
			if isRateLimit(err) {
				return summary, err
			}
			s.logger.Error("repository sync failed", "repo", apiRepo.FullName, "error", err)
			summary.record(apiRepo.FullName, OutcomeFailed, err)
			continue
		}
		summary.record(apiRepo.FullName, outcome, nil)
	}

	s.logger.Info("full sync finished",
		"synced", summary.Synced, "created", summary.Created,
		"failed", summary.Failed, "computing", summary.Computing)
	return summary, nil
}

// syncRepository handles one repository of a full sync inside its
// transaction: metadata upsert, language refresh, then the conditional
// commit and weekly passes. A repository where every stage was still fresh
// comes back as OutcomeUnchanged.
func (s *Syncer) syncRepository(ctx context.Context, q database.Querier, apiRepo *github.Repo, summary *Summary) (Outcome, error) {
	stored, created, refreshed, err := s.upsertMetadata(ctx, q, apiRepo)
	if err != nil {
		return OutcomeFailed, err
	}
	if created {
		summary.Created++
	}

	outcome := OutcomeUnchanged
	if created || refreshed {
		outcome = OutcomeSynced
	}

	if created || s.opts.Force {
		if err := s.refreshLanguages(ctx, q, stored); err != nil {
			return OutcomeFailed, err
		}
	}

	if stored.Fork || stored.Archived {
		return outcome, nil
	}

	if s.opts.Force || stored.CommitsSyncedAt == nil ||
		s.now().Sub(*stored.CommitsSyncedAt) > s.opts.CommitStaleAfter {
		if err := s.syncCommits(ctx, q, stored); err != nil {
			return OutcomeFailed, err
		}
		outcome = OutcomeSynced
	}

	if stored.TrackWeekly {
		if s.opts.Force || stored.WeeklySyncedAt == nil ||
			s.now().Sub(*stored.WeeklySyncedAt) > s.opts.WeeklyStaleAfter {
			wOutcome, err := s.syncWeekly(ctx, q, stored)
			if err != nil {
				return OutcomeFailed, err
			}
			switch wOutcome {
			case OutcomeComputing:
				summary.Computing++
			case OutcomeSynced:
				outcome = OutcomeSynced
			}
		}
	}
	return outcome, nil
}

// upsertMetadata writes the repository's metadata snapshot when it is new,
// forced, or stale, and otherwise leaves the stored row alone. The bools
// report whether a row was created and whether the snapshot was rewritten.
func (s *Syncer) upsertMetadata(ctx context.Context, q database.Querier, apiRepo *github.Repo) (*model.Repository, bool, bool, error) {
	existing, err := q.GetRepositoryByGithubID(ctx, apiRepo.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, false, err
	}

	if existing != nil && !s.opts.Force && existing.LastSyncedAt != nil &&
		s.now().Sub(*existing.LastSyncedAt) < s.opts.RepoStaleAfter {
		return existing, false, false, nil
	}

	incoming := apiRepo.ToModel()
	stored, created, err := q.UpsertRepository(ctx, &incoming)
	if err != nil {
		return nil, false, false, err
	}
	if created {
		s.logger.Info("repository created", "repo", stored.FullName)
	}

	if enabled := stored.QualifiesForWeeklyTracking(); enabled != stored.TrackWeekly {
		if err := q.SetWeeklyTracking(ctx, stored.ID, enabled); err != nil {
			return nil, false, false, err
		}
		stored.TrackWeekly = enabled
	}
	return stored, created, true, nil
}

// refreshLanguages replaces the stored language breakdown with the current
// byte counts, largest first.
func (s *Syncer) refreshLanguages(ctx context.Context, q database.Querier, repo *model.Repository) error {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return err
	}

	byLang, err := s.gh.GetLanguages(ctx, owner, name)
	if err != nil {
		return err
	}
	if len(byLang) == 0 {
		return q.ReplaceLanguages(ctx, repo.ID, nil)
	}

	var total int64
	for _, b := range byLang {
		total += b
	}

	langs := make([]model.RepoLanguage, 0, len(byLang))
	for lang, b := range byLang {
		langs = append(langs, model.RepoLanguage{
			RepositoryID: repo.ID,
			Language:     lang,
			Bytes:        b,
			Percentage:   float64(b) / float64(total) * 100,
		})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Bytes > langs[j].Bytes })

	return q.ReplaceLanguages(ctx, repo.ID, langs)
}
