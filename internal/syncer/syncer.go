// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"starsync/internal/database"
	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
	"starsync/internal/retry"
	"starsync/internal/settings"
)

const (
	// Only the first repositories of a run get their activity refreshed.
	activityRepoLimit = 20
	// Per category (commits, issues, pull requests).
	activityItemLimit = 5
	repoDelay         = 100 * time.Millisecond

	saveProgressEvery   = 10
	updateProgressEvery = 5
)

// Upstream is the slice of the GitHub client a sync run needs.
type Upstream interface {
	FetchAllStarred(ctx context.Context, onPage func(page, fetched int)) ([]model.Repository, error)
	ListRecentCommits(ctx context.Context, owner, name string, limit int) ([]model.Activity, error)
	ListOpenIssues(ctx context.Context, owner, name string, limit int) ([]model.Activity, error)
	ListOpenPullRequests(ctx context.Context, owner, name string, limit int) ([]model.Activity, error)
}

// ClientFactory builds an Upstream bound to one user's access token.
type ClientFactory func(token string) (Upstream, error)

// Syncer orchestrates the fetching and storing of a user's starred repositories.
type Syncer struct {
	db        database.Querier
	settings  *settings.Store
	newClient ClientFactory
	logger    *slog.Logger
	retry     retry.Policy

	activityRepoLimit int
	activityItemLimit int
	repoDelay         time.Duration
	sleep             func(ctx context.Context, d time.Duration) error
	now               func() time.Time
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(db database.Querier, newClient ClientFactory, logger *slog.Logger) *Syncer {
	s := &Syncer{
		db:                db,
		settings:          settings.NewStore(db),
		newClient:         newClient,
		logger:            logger,
		retry:             retry.Default(),
		activityRepoLimit: activityRepoLimit,
		activityItemLimit: activityItemLimit,
		repoDelay:         repoDelay,
		sleep:             sleepContext,
		now:               time.Now,
	}
	s.retry.Retryable = retryable
	s.retry.OnRetry = func(err error, attempt int, delay time.Duration) {
		s.logger.Warn("Retrying after failure", "attempt", attempt, "delay", delay.String(), "error", err)
	}
	return s
}

// retryable rejects credential failures, missing rows and an exhausted quota.
func retryable(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	var rlErr *custom_errors.RateLimitExceededError
	if errors.As(err, &rlErr) {
		return false
	}
	return retry.NotAuthError(err)
}

// run carries the state of one SyncUser call.
type run struct {
	result     model.SyncResult
	logger     *slog.Logger
	onProgress func(model.SyncProgress)
}

func (r *run) emit(stage model.SyncStage, current, total int, msg string) {
	if r.onProgress != nil {
		r.onProgress(model.SyncProgress{Stage: stage, Current: current, Total: total, Message: msg})
	}
}

// nonFatal records a per-item failure and lets the run continue.
func (r *run) nonFatal(err error) {
	r.logger.Warn("Sync step failed", "error", err)
	r.result.Errors = append(r.result.Errors, err.Error())
}

// SyncUser performs one full synchronization run for userID. Progress events
// are passed to onProgress when it is non-nil. Failures are reported in the
// returned result rather than as an error.
func (s *Syncer) SyncUser(ctx context.Context, userID int64, onProgress func(model.SyncProgress)) model.SyncResult {
	start := s.now()
	r := &run{
		result:     model.SyncResult{RunID: uuid.NewString(), UserID: userID},
		onProgress: onProgress,
	}
	r.logger = s.logger.With("user_id", userID, "run_id", r.result.RunID)
	r.logger.Info("Starting sync run")

	err := s.syncUser(ctx, userID, r)
	if err != nil {
		r.result.Success = false
		r.result.Errors = append(r.result.Errors, err.Error())
		r.logger.Error("Sync run failed", "error", err)
	}
	r.result.DurationMS = s.now().Sub(start).Milliseconds()
	if err == nil {
		r.logger.Info("Sync run finished",
			"repos_synced", r.result.ReposSynced,
			"updates_detected", r.result.UpdatesDetected,
			"errors", len(r.result.Errors),
			"duration_ms", r.result.DurationMS)
	}
	return r.result
}

// syncUser returns only run-aborting errors; everything else lands in r.result.
func (s *Syncer) syncUser(ctx context.Context, userID int64, r *run) error {
	user, err := s.db.GetUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &custom_errors.UserNotFoundError{UserID: userID}
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.AccessToken.Valid || user.AccessToken.String == "" {
		return custom_errors.ErrMissingCredential
	}

	cfg, err := s.settings.Sync(ctx, userID)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		r.logger.Info("Sync disabled for user")
		r.result.Success = true
		r.result.Disabled = true
		return nil
	}

	client, err := s.newClient(user.AccessToken.String)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	// fetching
	r.emit(model.StageFetching, 0, 0, "Fetching starred repositories")
	repos, err := retry.Value(ctx, s.retry, func(ctx context.Context) ([]model.Repository, error) {
		return client.FetchAllStarred(ctx, func(page, fetched int) {
			r.emit(model.StageFetching, fetched, 0, fmt.Sprintf("Fetched %d repositories (page %d)", fetched, page))
		})
	})
	if err != nil {
		return fmt.Errorf("failed to fetch starred repositories: %w", err)
	}
	r.logger.Info("Fetched starred repositories", "count", len(repos))

	// saving
	syncedAt := s.now()
	r.emit(model.StageSaving, 0, len(repos), fmt.Sprintf("Saving %d repositories", len(repos)))
	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := retry.Value(ctx, s.retry, func(ctx context.Context) (int64, error) {
			return s.db.UpsertRepository(ctx, upsertRepositoryParams(userID, repo, syncedAt))
		})
		if err != nil {
			r.nonFatal(fmt.Errorf("failed to save %s: %w", repo.FullName, err))
		} else {
			r.result.ReposSynced++
		}
		if (i+1)%saveProgressEvery == 0 || i == len(repos)-1 {
			r.emit(model.StageSaving, i+1, len(repos), fmt.Sprintf("Saved %d of %d repositories", i+1, len(repos)))
		}
	}

	// updates
	selected := repos[:min(len(repos), s.activityRepoLimit)]
	r.emit(model.StageUpdates, 0, len(selected), fmt.Sprintf("Checking recent activity for %d repositories", len(selected)))
	for i, repo := range selected {
		if i > 0 {
			if err := s.sleep(ctx, s.repoDelay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := s.syncActivity(ctx, client, userID, repo, r.logger)
		r.result.UpdatesDetected += n
		if err != nil {
			r.nonFatal(fmt.Errorf("failed to sync activity for %s: %w", repo.FullName, err))
		}
		if (i+1)%updateProgressEvery == 0 || i == len(selected)-1 {
			r.emit(model.StageUpdates, i+1, len(selected), fmt.Sprintf("Checked %d of %d repositories", i+1, len(selected)))
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		return s.db.TouchLastSyncAt(ctx, database.TouchLastSyncAtParams{
			UserID:     userID,
			LastSyncAt: pgtype.Timestamptz{Time: s.now(), Valid: true},
		})
	})
	if err != nil {
		r.nonFatal(fmt.Errorf("failed to record last sync time: %w", err))
	}

	r.result.Success = true
	r.emit(model.StageComplete, r.result.ReposSynced, len(repos),
		fmt.Sprintf("Synced %d repositories, %d new updates", r.result.ReposSynced, r.result.UpdatesDetected))
	return nil
}

// syncActivity fetches commits, issues and pull requests for one repository,
// in that order, and stores the ones not seen before. It stops at the first
// failure and returns how many records were new up to that point.
func (s *Syncer) syncActivity(ctx context.Context, client Upstream, userID int64, repo model.Repository, logger *slog.Logger) (int, error) {
	logger = logger.With("repo", repo.FullName)

	repoID, err := retry.Value(ctx, s.retry, func(ctx context.Context) (int64, error) {
		return s.db.GetRepositoryID(ctx, database.GetRepositoryIDParams{UserID: userID, GithubRepoID: repo.GithubRepoID})
	})
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn("Repository not stored, skipping activity")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up repository: %w", err)
	}

	fetchers := []struct {
		kind  string
		fetch func(ctx context.Context, owner, name string, limit int) ([]model.Activity, error)
	}{
		{"commits", client.ListRecentCommits},
		{"issues", client.ListOpenIssues},
		{"pull requests", client.ListOpenPullRequests},
	}

	inserted := 0
	for _, f := range fetchers {
		items, err := retry.Value(ctx, s.retry, func(ctx context.Context) ([]model.Activity, error) {
			return f.fetch(ctx, repo.Owner, repo.Name, s.activityItemLimit)
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to fetch %s: %w", f.kind, err)
		}
		for _, item := range items {
			ok, err := s.insertActivityIfAbsent(ctx, repoID, item)
			if err != nil {
				return inserted, fmt.Errorf("failed to store %s %s: %w", item.Type, item.URL, err)
			}
			if ok {
				inserted++
			}
		}
	}
	if inserted > 0 {
		logger.Debug("Stored new activity", "count", inserted)
	}
	return inserted, nil
}

// insertActivityIfAbsent stores a, reporting whether a new row was created.
// An existing row with the same URL is left untouched.
func (s *Syncer) insertActivityIfAbsent(ctx context.Context, repoID int64, a model.Activity) (bool, error) {
	detectedAt := a.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = s.now()
	}
	rows, err := retry.Value(ctx, s.retry, func(ctx context.Context) (int64, error) {
		return s.db.InsertActivity(ctx, database.InsertActivityParams{
			RepositoryID: repoID,
			Type:         string(a.Type),
			Title:        a.Title,
			Description:  pgText(a.Description),
			Url:          a.URL,
			Author:       pgText(a.Author),
			DetectedAt:   pgtype.Timestamptz{Time: detectedAt, Valid: true},
		})
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func upsertRepositoryParams(userID int64, repo model.Repository, syncedAt time.Time) database.UpsertRepositoryParams {
	topics := repo.Topics
	if topics == nil {
		topics = []string{}
	}
	return database.UpsertRepositoryParams{
		UserID:          userID,
		GithubRepoID:    repo.GithubRepoID,
		Name:            repo.Name,
		OwnerLogin:      repo.Owner,
		FullName:        repo.FullName,
		Description:     pgTextPtr(repo.Description),
		Url:             repo.URL,
		Language:        pgTextPtr(repo.Language),
		StarsCount:      int32(repo.StarsCount),
		ForksCount:      int32(repo.ForksCount),
		OpenIssuesCount: int32(repo.OpenIssuesCount),
		Topics:          topics,
		RepoCreatedAt:   pgTime(repo.RepoCreatedAt),
		RepoUpdatedAt:   pgTime(repo.RepoUpdatedAt),
		PushedAt:        pgTimePtr(repo.PushedAt),
		StarredAt:       pgTimePtr(repo.StarredAt),
		LastSyncedAt:    pgTime(syncedAt),
	}
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgTextPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgText(*s)
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func pgTimePtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgTime(*t)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
