// internal/syncer/manual.go
package syncer

import (
	"context"
	"fmt"
	"time"

	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
)

// MinManualInterval is the shortest gap allowed between a user's last sync
// and a manually triggered one.
const MinManualInterval = 5 * time.Minute

// CheckCooldown returns a *TooSoonError if userID synced less than
// MinManualInterval ago. The check reads the stored last sync time and is not
// atomic with the run that follows it.
func (s *Syncer) CheckCooldown(ctx context.Context, userID int64) error {
	cfg, err := s.settings.Sync(ctx, userID)
	if err != nil {
		return err
	}
	if wait := s.cooldownRemaining(cfg.LastSyncAt); wait > 0 {
		return &custom_errors.TooSoonError{Wait: wait, LastSyncAt: *cfg.LastSyncAt}
	}
	return nil
}

// TriggerManual runs a sync for userID unless it is still cooling down.
func (s *Syncer) TriggerManual(ctx context.Context, userID int64, onProgress func(model.SyncProgress)) (model.SyncResult, error) {
	if err := s.CheckCooldown(ctx, userID); err != nil {
		return model.SyncResult{}, err
	}
	return s.SyncUser(ctx, userID, onProgress), nil
}

// Status reports the user's sync state and whether a manual sync may start now.
func (s *Syncer) Status(ctx context.Context, userID int64) (model.SyncStatus, error) {
	cfg, err := s.settings.Sync(ctx, userID)
	if err != nil {
		return model.SyncStatus{}, err
	}
	count, err := s.db.CountRepositoriesByUser(ctx, userID)
	if err != nil {
		return model.SyncStatus{}, fmt.Errorf("failed to count repositories: %w", err)
	}

	status := model.SyncStatus{
		HasSynced:       cfg.LastSyncAt != nil,
		LastSyncAt:      cfg.LastSyncAt,
		IntervalMinutes: cfg.IntervalMinutes,
		SyncEnabled:     cfg.Enabled,
		CanSync:         true,
		RepositoryCount: count,
	}
	if wait := s.cooldownRemaining(cfg.LastSyncAt); wait > 0 {
		status.CanSync = false
		status.WaitSeconds = (&custom_errors.TooSoonError{Wait: wait}).WaitSeconds()
	}
	return status, nil
}

func (s *Syncer) cooldownRemaining(lastSyncAt *time.Time) time.Duration {
	if lastSyncAt == nil {
		return 0
	}
	return lastSyncAt.Add(MinManualInterval).Sub(s.now())
}
