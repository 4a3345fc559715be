// Package selection picks the next video for a user.
//
// In algorithmic mode every category in the catalog competes, weighted by
// the user's preference score. In category mode a single category is drawn
// from uniformly. Each mode has its own viewed-set, and a draw that finds
// nothing left resets that viewed-set instead of picking.
package selection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/reel/internal/catalog"
	"github.com/hyperengineering/reel/internal/metrics"
	"github.com/hyperengineering/reel/internal/types"
	"github.com/hyperengineering/reel/internal/viewed"
)

// Preferences supplies per-category scores for a user.
type Preferences interface {
	Preferences(ctx context.Context, userID string) (map[string]float64, error)
}

// ViewedSet reads and writes the per-mode record of surfaced videos.
type ViewedSet interface {
	Viewed(ctx context.Context, userID string, mode types.Mode) (viewed.Set, error)
	Mark(ctx context.Context, userID, videoID string, mode types.Mode) error
	Reset(ctx context.Context, userID string, mode types.Mode) (int64, error)
}

// Selection is the outcome of a draw. When Exhausted is true, Video is nil
// and the viewed-set for Mode has been cleared; the caller may draw again.
type Selection struct {
	Video     *types.VideoRef
	Category  string
	Mode      types.Mode
	Exhausted bool
}

// Engine combines catalog, preferences and viewed-set into a draw.
type Engine struct {
	catalog catalog.Resolver
	prefs   Preferences
	viewed  ViewedSet
	rand    Source
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the randomness source. The default draws from the
// math/rand/v2 global generator.
func WithSource(src Source) Option {
	return func(e *Engine) {
		e.rand = src
	}
}

// NewEngine creates a selection engine.
func NewEngine(cat catalog.Resolver, prefs Preferences, viewedSet ViewedSet, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		prefs:   prefs,
		viewed:  viewedSet,
		rand:    globalSource{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectNext draws the next video for userID. An empty category selects
// algorithmic mode; otherwise the draw is scoped to that category.
func (e *Engine) SelectNext(ctx context.Context, userID, category string) (Selection, error) {
	mode := types.Algorithmic
	if category != "" {
		mode = types.CategoryMode(category)
	}

	categories := e.catalog.List(ctx)
	if len(categories) == 0 {
		return Selection{}, ErrNoVideosAvailable
	}

	if !mode.IsAlgorithmic() {
		found, ok := catalog.Find(categories, category)
		if !ok {
			return Selection{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
		}
		categories = []types.Category{found}
	}

	seen, err := e.viewed.Viewed(ctx, userID, mode)
	if err != nil {
		return Selection{}, err
	}

	available := excludeViewed(categories, seen)
	if len(available) == 0 {
		return e.resetExhausted(ctx, userID, mode)
	}

	var pick candidate
	if mode.IsAlgorithmic() {
		scores, err := e.prefs.Preferences(ctx, userID)
		if err != nil {
			return Selection{}, err
		}
		pick = e.weightedPick(available, scores)
	} else {
		pick = e.uniformPick(available[0])
	}

	if err := e.viewed.Mark(ctx, userID, pick.video.Path, mode); err != nil {
		metrics.MarkViewedFailures.Inc()
		slog.Error("failed to mark video viewed",
			"component", "selection",
			"user_id", userID,
			"mode", mode.String(),
			"video", pick.video.Path,
			"error", err,
		)
	}

	metrics.Selections.WithLabelValues(metrics.ModeLabel(mode)).Inc()

	video := pick.video
	return Selection{
		Video:    &video,
		Category: pick.category,
		Mode:     mode,
	}, nil
}

func (e *Engine) resetExhausted(ctx context.Context, userID string, mode types.Mode) (Selection, error) {
	if _, err := e.viewed.Reset(ctx, userID, mode); err != nil {
		return Selection{}, err
	}

	metrics.ExhaustionResets.WithLabelValues(metrics.ModeLabel(mode)).Inc()
	slog.Info("all videos in scope viewed",
		"component", "selection",
		"user_id", userID,
		"mode", mode.String(),
	)

	return Selection{Mode: mode, Exhausted: true}, nil
}

// excludeViewed returns copies of categories without viewed videos, dropping
// categories left empty. The input is not modified.
func excludeViewed(categories []types.Category, seen viewed.Set) []types.Category {
	var out []types.Category
	for _, c := range categories {
		var videos []types.VideoRef
		for _, v := range c.Videos {
			if !seen.Has(v.Path) {
				videos = append(videos, v)
			}
		}
		if len(videos) > 0 {
			out = append(out, types.Category{Name: c.Name, Videos: videos})
		}
	}
	return out
}

func (e *Engine) uniformPick(c types.Category) candidate {
	v := c.Videos[e.rand.IntN(len(c.Videos))]
	return candidate{video: v, category: c.Name}
}

func (e *Engine) weightedPick(categories []types.Category, scores map[string]float64) candidate {
	var p pool
	for _, c := range categories {
		score, ok := scores[c.Name]
		w := CategoryWeight(score, ok)

		videos := c.Videos
		e.rand.Shuffle(len(videos), func(i, j int) {
			videos[i], videos[j] = videos[j], videos[i]
		})

		for i, v := range videos {
			p.add(candidate{video: v, category: c.Name}, PositionWeight(w, i))
		}
	}
	return p.draw(e.rand)
}
