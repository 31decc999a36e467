package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starsync/internal/database"
	"starsync/internal/database/mocks"
	custom_errors "starsync/internal/errors"
)

func TestStore_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("returns defaults when no row exists", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetSyncSettings", ctx, int64(1)).Return(database.SyncSetting{}, pgx.ErrNoRows).Once()

		got, err := NewStore(mockQ).Sync(ctx, 1)

		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.Equal(t, 120, got.IntervalMinutes)
		assert.Nil(t, got.LastSyncAt)
		mockQ.AssertExpectations(t)
	})

	t.Run("maps a stored row", func(t *testing.T) {
		last := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetSyncSettings", ctx, int64(1)).Return(database.SyncSetting{
			UserID:              1,
			SyncEnabled:         false,
			SyncIntervalMinutes: 60,
			LastSyncAt:          pgtype.Timestamptz{Time: last, Valid: true},
		}, nil).Once()

		got, err := NewStore(mockQ).Sync(ctx, 1)

		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Equal(t, 60, got.IntervalMinutes)
		require.NotNil(t, got.LastSyncAt)
		assert.Equal(t, last, *got.LastSyncAt)
	})

	t.Run("wraps unexpected database errors", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetSyncSettings", ctx, int64(1)).Return(database.SyncSetting{}, dbErr).Once()

		_, err := NewStore(mockQ).Sync(ctx, 1)

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestStore_UpdateSync(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an interval out of range", func(t *testing.T) {
		for _, minutes := range []int{29, 1441, 0} {
			mockQ := new(mocks.MockQuerier)
			m := minutes

			_, err := NewStore(mockQ).UpdateSync(ctx, 1, SyncUpdate{IntervalMinutes: &m})

			var vErr *custom_errors.ValidationError
			require.ErrorAs(t, err, &vErr, "minutes=%d", minutes)
			assert.Equal(t, "syncIntervalMinutes", vErr.Field)
			mockQ.AssertNotCalled(t, "UpsertSyncSettings", mock.Anything, mock.Anything)
		}
	})

	t.Run("merges a partial update over the defaults", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetSyncSettings", ctx, int64(1)).Return(database.SyncSetting{}, pgx.ErrNoRows).Once()
		mockQ.On("UpsertSyncSettings", ctx, database.UpsertSyncSettingsParams{
			UserID:              1,
			SyncEnabled:         true,
			SyncIntervalMinutes: 30,
		}).Return(database.SyncSetting{UserID: 1, SyncEnabled: true, SyncIntervalMinutes: 30}, nil).Once()

		minutes := 30
		got, err := NewStore(mockQ).UpdateSync(ctx, 1, SyncUpdate{IntervalMinutes: &minutes})

		require.NoError(t, err)
		assert.Equal(t, 30, got.IntervalMinutes)
		mockQ.AssertExpectations(t)
	})

	t.Run("can disable sync", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetSyncSettings", ctx, int64(1)).Return(database.SyncSetting{SyncEnabled: true, SyncIntervalMinutes: 1440}, nil).Once()
		mockQ.On("UpsertSyncSettings", ctx, database.UpsertSyncSettingsParams{
			UserID:              1,
			SyncEnabled:         false,
			SyncIntervalMinutes: 1440,
		}).Return(database.SyncSetting{UserID: 1, SyncEnabled: false, SyncIntervalMinutes: 1440}, nil).Once()

		disabled := false
		got, err := NewStore(mockQ).UpdateSync(ctx, 1, SyncUpdate{Enabled: &disabled})

		require.NoError(t, err)
		assert.False(t, got.Enabled)
		mockQ.AssertExpectations(t)
	})
}

func TestStore_AIModel(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when unset", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)
		mockQ.On("GetAIModel", ctx, int64(1)).Return("", pgx.ErrNoRows).Once()

		got, err := NewStore(mockQ).AIModel(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, DefaultAIModel, got)
	})

	t.Run("rejects a model outside the allow-list", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)

		_, err := NewStore(mockQ).UpdateAIModel(ctx, 1, "gpt-2")

		var vErr *custom_errors.ValidationError
		assert.ErrorAs(t, err, &vErr)
		mockQ.AssertNotCalled(t, "UpsertAIModel", mock.Anything, mock.Anything)
	})

	t.Run("saves an allowed model", func(t *testing.T) {
		mockQ := new(mocks.MockQuerier)
		mockQ.On("UpsertAIModel", ctx, database.UpsertAIModelParams{UserID: 1, AiModel: "gpt-4o"}).Return("gpt-4o", nil).Once()

		got, err := NewStore(mockQ).UpdateAIModel(ctx, 1, "gpt-4o")

		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", got)
		mockQ.AssertExpectations(t)
	})
}
