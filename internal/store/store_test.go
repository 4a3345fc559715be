package store

import (
	"context"

	"github.com/hyperengineering/reel/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)

func (m *mockStore) CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error) {
	return nil, nil
}
func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return nil, nil
}
func (m *mockStore) ListUserIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (m *mockStore) GetPreferences(ctx context.Context, userID string) ([]types.Preference, error) {
	return nil, nil
}
func (m *mockStore) GetPreference(ctx context.Context, userID, category string) (*types.Preference, error) {
	return nil, nil
}
func (m *mockStore) SetPreference(ctx context.Context, userID, category string, score float64) error {
	return nil
}
func (m *mockStore) InitializePreferences(ctx context.Context, userID string, categories []string) (int64, error) {
	return 0, nil
}
func (m *mockStore) GetViewed(ctx context.Context, userID string, mode types.Mode) ([]string, error) {
	return nil, nil
}
func (m *mockStore) MarkViewed(ctx context.Context, userID, videoPath string, mode types.Mode) error {
	return nil
}
func (m *mockStore) ResetViewed(ctx context.Context, userID string, mode types.Mode) (int64, error) {
	return 0, nil
}
func (m *mockStore) AppendInteraction(ctx context.Context, event types.InteractionEvent) (*types.InteractionEvent, error) {
	return nil, nil
}
func (m *mockStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	return nil, nil
}
func (m *mockStore) Close() error {
	return nil
}
