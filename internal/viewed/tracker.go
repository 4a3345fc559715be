// Package viewed tracks which videos have already been surfaced to a user.
//
// Each (user, mode) pair has its own set: a video exhausted in algorithmic
// mode is still fresh in category mode, and vice versa.
package viewed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/reel/internal/types"
)

// Store defines the store operations needed by the tracker.
type Store interface {
	GetViewed(ctx context.Context, userID string, mode types.Mode) ([]string, error)
	MarkViewed(ctx context.Context, userID, videoPath string, mode types.Mode) error
	ResetViewed(ctx context.Context, userID string, mode types.Mode) (int64, error)
}

// Set is a set of video identifiers.
type Set map[string]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Tracker reads and writes viewed-sets.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker backed by store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Viewed returns the set of video identifiers surfaced to userID in mode.
func (t *Tracker) Viewed(ctx context.Context, userID string, mode types.Mode) (Set, error) {
	paths, err := t.store.GetViewed(ctx, userID, mode)
	if err != nil {
		return nil, fmt.Errorf("read viewed set: %w", err)
	}

	set := make(Set, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set, nil
}

// Mark records videoID as surfaced. Marking twice is a no-op.
func (t *Tracker) Mark(ctx context.Context, userID, videoID string, mode types.Mode) error {
	if err := t.store.MarkViewed(ctx, userID, videoID, mode); err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}

// Reset clears the viewed-set for exactly (userID, mode). Other modes and
// other users are untouched.
func (t *Tracker) Reset(ctx context.Context, userID string, mode types.Mode) (int64, error) {
	n, err := t.store.ResetViewed(ctx, userID, mode)
	if err != nil {
		return 0, fmt.Errorf("reset viewed set: %w", err)
	}

	slog.Info("viewed set reset",
		"component", "viewed",
		"user_id", userID,
		"mode", mode.String(),
		"cleared", n,
	)
	return n, nil
}
