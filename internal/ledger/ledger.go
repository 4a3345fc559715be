// Package ledger keeps per-user category preference scores.
//
// Scores start at 1 and move with feedback, but never fall below 1. Every
// feedback event is written to the interaction log before the score changes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/hyperengineering/reel/internal/metrics"
	"github.com/hyperengineering/reel/internal/store"
	"github.com/hyperengineering/reel/internal/types"
)

// MinScore is the floor for every preference score.
const MinScore = 1.0

// Store defines the store operations needed by the ledger.
type Store interface {
	GetPreferences(ctx context.Context, userID string) ([]types.Preference, error)
	GetPreference(ctx context.Context, userID, category string) (*types.Preference, error)
	SetPreference(ctx context.Context, userID, category string, score float64) error
	InitializePreferences(ctx context.Context, userID string, categories []string) (int64, error)
	AppendInteraction(ctx context.Context, event types.InteractionEvent) (*types.InteractionEvent, error)
}

// scoreDeltas maps interaction types to their score adjustment.
var scoreDeltas = map[types.InteractionType]float64{
	types.InteractionLike:    1,
	types.InteractionScroll:  0.5,
	types.InteractionDislike: -1,
	types.InteractionHate:    -2,
}

// ScoreDelta returns the score adjustment for an interaction type.
// Unknown types adjust by 0.
func ScoreDelta(t types.InteractionType) float64 {
	return scoreDeltas[t]
}

// Ledger reads and mutates preference scores.
type Ledger struct {
	store Store
}

// New creates a ledger backed by store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Preferences returns the user's scores keyed by category. Categories with
// no row are absent from the map.
func (l *Ledger) Preferences(ctx context.Context, userID string) (map[string]float64, error) {
	prefs, err := l.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	scores := make(map[string]float64, len(prefs))
	for _, p := range prefs {
		scores[p.Category] = p.Score
	}
	return scores, nil
}

// Snapshot returns the user's preferences ordered by score descending, ties
// broken by category name ascending.
func (l *Ledger) Snapshot(ctx context.Context, userID string) ([]types.Preference, error) {
	prefs, err := l.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	return prefs, nil
}

// Initialize seeds a score of 1 for every category the user has no row for.
// Existing scores are kept.
func (l *Ledger) Initialize(ctx context.Context, userID string, categories []string) (int64, error) {
	n, err := l.store.InitializePreferences(ctx, userID, categories)
	if err != nil {
		return 0, fmt.Errorf("initialize preferences: %w", err)
	}
	if n > 0 {
		slog.Debug("preferences seeded",
			"component", "ledger",
			"user_id", userID,
			"created", n,
		)
	}
	return n, nil
}

// ApplyFeedback records an interaction and adjusts the category score.
//
// The event is appended to the interaction log first, whatever its type. A
// failed append is logged and does not stop the score update. When the type
// carries a non-zero delta and the user already has a row for the category,
// the score becomes max(1, old+delta). A missing row is left missing.
func (l *Ledger) ApplyFeedback(ctx context.Context, userID, videoID, category string, interaction types.InteractionType) error {
	metrics.Feedback.WithLabelValues(metrics.InteractionLabel(interaction)).Inc()

	_, err := l.store.AppendInteraction(ctx, types.InteractionEvent{
		UserID:          userID,
		VideoPath:       videoID,
		Category:        category,
		InteractionType: interaction,
	})
	if err != nil {
		slog.Error("interaction log append failed",
			"component", "ledger",
			"user_id", userID,
			"video", videoID,
			"error", err,
		)
	}

	delta := ScoreDelta(interaction)
	if delta == 0 {
		if _, known := scoreDeltas[interaction]; !known {
			slog.Info("unknown interaction type",
				"component", "ledger",
				"user_id", userID,
				"interaction_type", string(interaction),
			)
		}
		return nil
	}

	pref, err := l.store.GetPreference(ctx, userID, category)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read preference: %w", err)
	}

	score := math.Max(MinScore, pref.Score+delta)
	if err := l.store.SetPreference(ctx, userID, category, score); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("write preference: %w", err)
	}

	slog.Debug("preference updated",
		"component", "ledger",
		"user_id", userID,
		"category", category,
		"from", pref.Score,
		"to", score,
	)
	return nil
}
