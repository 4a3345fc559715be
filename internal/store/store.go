package store

import (
	"context"

	"github.com/hyperengineering/reel/internal/types"
)

// Store defines the persistence operations used by the selection engine,
// the preference ledger, and the account layer.
type Store interface {
	// Accounts
	CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	// Preferences
	GetPreferences(ctx context.Context, userID string) ([]types.Preference, error)
	GetPreference(ctx context.Context, userID, category string) (*types.Preference, error)
	SetPreference(ctx context.Context, userID, category string, score float64) error
	InitializePreferences(ctx context.Context, userID string, categories []string) (int64, error)

	// Viewed-set
	GetViewed(ctx context.Context, userID string, mode types.Mode) ([]string, error)
	MarkViewed(ctx context.Context, userID, videoPath string, mode types.Mode) error
	ResetViewed(ctx context.Context, userID string, mode types.Mode) (int64, error)

	// Interaction log
	AppendInteraction(ctx context.Context, event types.InteractionEvent) (*types.InteractionEvent, error)

	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
