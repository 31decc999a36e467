// Package mocks provides a testify mock of database.Querier.
package mocks

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"

	"starsync/internal/database"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) CountActivitiesByRepository(ctx context.Context, repositoryID int64) (int64, error) {
	args := m.Called(ctx, repositoryID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) CountRepositoriesByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) GetAIModel(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
func (m *MockQuerier) GetRepositoryID(ctx context.Context, arg database.GetRepositoryIDParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) GetSyncSettings(ctx context.Context, userID int64) (database.SyncSetting, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(database.SyncSetting), args.Error(1)
}
func (m *MockQuerier) GetUser(ctx context.Context, id int64) (database.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.User), args.Error(1)
}
func (m *MockQuerier) InsertActivity(ctx context.Context, arg database.InsertActivityParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) ListUsersDueForSync(ctx context.Context, now pgtype.Timestamptz) ([]database.ListUsersDueForSyncRow, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]database.ListUsersDueForSyncRow), args.Error(1)
}
func (m *MockQuerier) TouchLastSyncAt(ctx context.Context, arg database.TouchLastSyncAtParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) UpsertAIModel(ctx context.Context, arg database.UpsertAIModelParams) (string, error) {
	args := m.Called(ctx, arg)
	return args.String(0), args.Error(1)
}
func (m *MockQuerier) UpsertRepository(ctx context.Context, arg database.UpsertRepositoryParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) UpsertSyncSettings(ctx context.Context, arg database.UpsertSyncSettingsParams) (database.SyncSetting, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.SyncSetting), args.Error(1)
}
func (m *MockQuerier) UpsertUser(ctx context.Context, arg database.UpsertUserParams) (database.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.User), args.Error(1)
}
