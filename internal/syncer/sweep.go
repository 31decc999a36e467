// internal/syncer/sweep.go
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"starsync/internal/model"
)

// SyncUsers runs SyncUser for each id, one after another. onUser, when set, is
// called after each run with the 1-based index and the total.
func (s *Syncer) SyncUsers(ctx context.Context, userIDs []int64, onUser func(index, total int, result model.SyncResult)) []model.SyncResult {
	results := make([]model.SyncResult, 0, len(userIDs))
	for i, id := range userIDs {
		if ctx.Err() != nil {
			break
		}
		res := s.SyncUser(ctx, id, nil)
		results = append(results, res)
		if onUser != nil {
			onUser(i+1, len(userIDs), res)
		}
	}
	return results
}

// RunSweep syncs every user whose configured interval has elapsed and
// aggregates the results.
func (s *Syncer) RunSweep(ctx context.Context) (model.SweepSummary, error) {
	start := s.now()
	due, err := s.db.ListUsersDueForSync(ctx, pgtype.Timestamptz{Time: start, Valid: true})
	if err != nil {
		return model.SweepSummary{}, fmt.Errorf("failed to list users due for sync: %w", err)
	}
	s.logger.Info("Starting sync sweep", "due_users", len(due))

	ids := make([]int64, 0, len(due))
	for _, u := range due {
		ids = append(ids, u.UserID)
	}

	summary := model.SweepSummary{Success: true, Errors: []string{}}
	s.SyncUsers(ctx, ids, func(index, total int, res model.SyncResult) {
		summary.UsersProcessed++
		if res.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.TotalReposSynced += res.ReposSynced
		summary.TotalUpdatesDetected += res.UpdatesDetected
		summary.Errors = append(summary.Errors, res.Errors...)
		s.logger.Info("Swept user", "user_id", res.UserID, "index", index, "total", total, "success", res.Success)
	})
	summary.DurationMS = s.now().Sub(start).Milliseconds()

	s.logger.Info("Sync sweep finished",
		"users_processed", summary.UsersProcessed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration_ms", summary.DurationMS)
	return summary, nil
}

// Start runs a sweep immediately and then on every tick of interval until ctx
// is cancelled.
func (s *Syncer) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("Starting sync scheduler", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runScheduledSweep(ctx) // Initial sweep

	for {
		select {
		case <-ticker.C:
			s.runScheduledSweep(ctx)
		case <-ctx.Done():
			s.logger.Info("Sync scheduler shutting down", "reason", ctx.Err())
			return
		}
	}
}

func (s *Syncer) runScheduledSweep(ctx context.Context) {
	if _, err := s.RunSweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Scheduled sweep failed", "error", err)
	}
}
