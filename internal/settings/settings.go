// internal/settings/settings.go
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"starsync/internal/database"
	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
)

const (
	DefaultEnabled         = true
	DefaultIntervalMinutes = 120
	MinIntervalMinutes     = 30
	MaxIntervalMinutes     = 1440

	DefaultAIModel = "gpt-4o-mini"
)

// AllowedAIModels lists the models a user may pick for assisted search.
var AllowedAIModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"claude-3-5-haiku-latest",
	"claude-3-5-sonnet-latest",
}

// SyncUpdate is a partial change to a user's sync settings. Nil fields keep
// their current value.
type SyncUpdate struct {
	Enabled         *bool `json:"syncEnabled"`
	IntervalMinutes *int  `json:"syncIntervalMinutes"`
}

// Store reads and writes per-user settings.
type Store struct {
	db database.Querier
}

// NewStore creates a new Store.
func NewStore(db database.Querier) *Store {
	return &Store{db: db}
}

// Sync returns the user's sync settings, or the defaults when none are stored.
func (s *Store) Sync(ctx context.Context, userID int64) (model.SyncSettings, error) {
	row, err := s.db.GetSyncSettings(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SyncSettings{Enabled: DefaultEnabled, IntervalMinutes: DefaultIntervalMinutes}, nil
	}
	if err != nil {
		return model.SyncSettings{}, fmt.Errorf("failed to read sync settings: %w", err)
	}
	return fromRow(row), nil
}

// UpdateSync validates and applies u, creating the settings row if needed.
func (s *Store) UpdateSync(ctx context.Context, userID int64, u SyncUpdate) (model.SyncSettings, error) {
	if u.IntervalMinutes != nil {
		if err := ValidateInterval(*u.IntervalMinutes); err != nil {
			return model.SyncSettings{}, err
		}
	}

	current, err := s.Sync(ctx, userID)
	if err != nil {
		return model.SyncSettings{}, err
	}
	if u.Enabled != nil {
		current.Enabled = *u.Enabled
	}
	if u.IntervalMinutes != nil {
		current.IntervalMinutes = *u.IntervalMinutes
	}

	row, err := s.db.UpsertSyncSettings(ctx, database.UpsertSyncSettingsParams{
		UserID:              userID,
		SyncEnabled:         current.Enabled,
		SyncIntervalMinutes: int32(current.IntervalMinutes),
	})
	if err != nil {
		return model.SyncSettings{}, fmt.Errorf("failed to save sync settings: %w", err)
	}
	return fromRow(row), nil
}

// ValidateInterval checks that minutes is within the allowed sync interval range.
func ValidateInterval(minutes int) error {
	if minutes < MinIntervalMinutes || minutes > MaxIntervalMinutes {
		return &custom_errors.ValidationError{
			Field:   "syncIntervalMinutes",
			Message: fmt.Sprintf("must be between %d and %d", MinIntervalMinutes, MaxIntervalMinutes),
		}
	}
	return nil
}

// AIModel returns the user's preferred model, or the default.
func (s *Store) AIModel(ctx context.Context, userID int64) (string, error) {
	m, err := s.db.GetAIModel(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultAIModel, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read ai model: %w", err)
	}
	return m, nil
}

// UpdateAIModel stores the user's preferred model if it is on the allow-list.
func (s *Store) UpdateAIModel(ctx context.Context, userID int64, aiModel string) (string, error) {
	if !slices.Contains(AllowedAIModels, aiModel) {
		return "", &custom_errors.ValidationError{Field: "model", Message: fmt.Sprintf("%q is not supported", aiModel)}
	}
	saved, err := s.db.UpsertAIModel(ctx, database.UpsertAIModelParams{UserID: userID, AiModel: aiModel})
	if err != nil {
		return "", fmt.Errorf("failed to save ai model: %w", err)
	}
	return saved, nil
}

func fromRow(row database.SyncSetting) model.SyncSettings {
	out := model.SyncSettings{
		Enabled:         row.SyncEnabled,
		IntervalMinutes: int(row.SyncIntervalMinutes),
	}
	if row.LastSyncAt.Valid {
		t := row.LastSyncAt.Time
		out.LastSyncAt = &t
	}
	return out
}
