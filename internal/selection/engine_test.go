package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/reel/internal/store"
	"github.com/hyperengineering/reel/internal/types"
	"github.com/hyperengineering/reel/internal/viewed"
)

// staticCatalog returns a fresh copy of its categories on every call.
type staticCatalog struct {
	categories []types.Category
}

func (c staticCatalog) List(ctx context.Context) []types.Category {
	out := make([]types.Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = types.Category{Name: cat.Name, Videos: append([]types.VideoRef(nil), cat.Videos...)}
	}
	return out
}

func newCatalog(counts map[string]int) staticCatalog {
	var c staticCatalog
	for _, name := range []string{"Comedy", "Food", "Music", "Sports"} {
		n, ok := counts[name]
		if !ok {
			continue
		}
		cat := types.Category{Name: name}
		for i := 1; i <= n; i++ {
			file := fmt.Sprintf("%s%d.mp4", name, i)
			cat.Videos = append(cat.Videos, types.VideoRef{
				Filename: file,
				Path:     "/videos/" + name + "/" + file,
				Category: name,
			})
		}
		c.categories = append(c.categories, cat)
	}
	return c
}

type mapPreferences struct {
	scores map[string]float64
	err    error
}

func (m mapPreferences) Preferences(ctx context.Context, userID string) (map[string]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

// forgetfulViewed never remembers a mark, so every draw sees a fresh pool.
type forgetfulViewed struct{}

func (forgetfulViewed) Viewed(ctx context.Context, userID string, mode types.Mode) (viewed.Set, error) {
	return viewed.Set{}, nil
}
func (forgetfulViewed) Mark(ctx context.Context, userID, videoID string, mode types.Mode) error {
	return nil
}
func (forgetfulViewed) Reset(ctx context.Context, userID string, mode types.Mode) (int64, error) {
	return 0, nil
}

// failingViewed reads normally from an inner tracker but fails selected calls.
type failingViewed struct {
	ViewedSet
	readErr error
	markErr error
}

func (f failingViewed) Viewed(ctx context.Context, userID string, mode types.Mode) (viewed.Set, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.ViewedSet.Viewed(ctx, userID, mode)
}

func (f failingViewed) Mark(ctx context.Context, userID, videoID string, mode types.Mode) error {
	if f.markErr != nil {
		return f.markErr
	}
	return f.ViewedSet.Mark(ctx, userID, videoID, mode)
}

func newTracker(t *testing.T) *viewed.Tracker {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "selection.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return viewed.NewTracker(s)
}

func seeded(seed uint64) Option {
	return WithSource(NewSource(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))))
}

func TestSelectNext_WeightedTowardPreferredCategory(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 6, "Music": 3})
	prefs := mapPreferences{scores: map[string]float64{"Comedy": 4, "Music": 1}}
	e := NewEngine(cat, prefs, forgetfulViewed{}, seeded(42))

	const draws = 3000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		sel, err := e.SelectNext(context.Background(), "u1", "")
		if err != nil {
			t.Fatal(err)
		}
		counts[sel.Category]++
	}

	// Comedy carries 24 of 27 pool slots; uniform would give 6 of 9.
	comedyShare := float64(counts["Comedy"]) / draws
	if comedyShare < 0.8 {
		t.Errorf("Comedy share = %.3f, want >= 0.8 (counts %v)", comedyShare, counts)
	}
	if counts["Music"] == 0 {
		t.Error("Music never selected; every category must stay eligible")
	}
}

func TestSelectNext_MissingPreferenceWeighsOne(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 1, "Food": 1})
	e := NewEngine(cat, mapPreferences{scores: map[string]float64{}}, forgetfulViewed{}, seeded(7))

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		sel, err := e.SelectNext(context.Background(), "u1", "")
		if err != nil {
			t.Fatal(err)
		}
		counts[sel.Category]++
	}

	for _, name := range []string{"Comedy", "Food"} {
		if counts[name] < 800 {
			t.Errorf("%s selected %d times, want roughly half of 2000", name, counts[name])
		}
	}
}

func TestSelectNext_CategoryScoping(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 4, "Music": 3})
	e := NewEngine(cat, mapPreferences{}, newTracker(t), seeded(1))
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		sel, err := e.SelectNext(ctx, "u1", "Music")
		if err != nil {
			t.Fatal(err)
		}
		if sel.Exhausted {
			t.Fatalf("draw %d exhausted early", i)
		}
		if sel.Category != "Music" || sel.Video.Category != "Music" {
			t.Fatalf("draw %d returned %s from %s", i, sel.Video.Path, sel.Category)
		}
		if seen[sel.Video.Path] {
			t.Fatalf("draw %d repeated %s", i, sel.Video.Path)
		}
		seen[sel.Video.Path] = true
		if sel.Mode != types.CategoryMode("Music") {
			t.Errorf("mode = %v, want category:Music", sel.Mode)
		}
	}

	sel, err := e.SelectNext(ctx, "u1", "Music")
	if err != nil {
		t.Fatal(err)
	}
	if !sel.Exhausted || sel.Video != nil {
		t.Fatalf("expected exhausted signal, got %+v", sel)
	}
}

func TestSelectNext_UnknownCategory(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 2, "Music": 1})
	e := NewEngine(cat, mapPreferences{}, forgetfulViewed{})

	_, err := e.SelectNext(context.Background(), "u1", "Dance")
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("error = %v, want ErrCategoryNotFound", err)
	}

	_, err = e.SelectNext(context.Background(), "u1", "comedy")
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("lowercase lookup error = %v, want ErrCategoryNotFound", err)
	}
}

func TestSelectNext_EmptyCatalog(t *testing.T) {
	e := NewEngine(staticCatalog{}, mapPreferences{}, forgetfulViewed{})

	for _, category := range []string{"", "Comedy"} {
		_, err := e.SelectNext(context.Background(), "u1", category)
		if !errors.Is(err, ErrNoVideosAvailable) {
			t.Errorf("category %q: error = %v, want ErrNoVideosAvailable", category, err)
		}
	}
}

func TestSelectNext_ExhaustionResetsOnlyActiveMode(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 2, "Food": 1})
	tracker := newTracker(t)
	e := NewEngine(cat, mapPreferences{}, tracker, seeded(3))
	ctx := context.Background()

	// Category-mode history that must survive the algorithmic reset.
	if err := tracker.Mark(ctx, "u1", "/videos/Comedy/Comedy1.mp4", types.CategoryMode("Comedy")); err != nil {
		t.Fatal(err)
	}
	// Another user's algorithmic history must survive too.
	if err := tracker.Mark(ctx, "u2", "/videos/Food/Food1.mp4", types.Algorithmic); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		sel, err := e.SelectNext(ctx, "u1", "")
		if err != nil {
			t.Fatal(err)
		}
		if sel.Exhausted {
			t.Fatalf("draw %d exhausted early", i)
		}
	}

	sel, err := e.SelectNext(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if !sel.Exhausted {
		t.Fatalf("expected exhausted signal, got %+v", sel)
	}
	if !sel.Mode.IsAlgorithmic() {
		t.Errorf("exhausted mode = %v, want algorithmic", sel.Mode)
	}

	if s, _ := tracker.Viewed(ctx, "u1", types.Algorithmic); len(s) != 0 {
		t.Errorf("algorithmic viewed-set not cleared: %v", s)
	}
	if s, _ := tracker.Viewed(ctx, "u1", types.CategoryMode("Comedy")); len(s) != 1 {
		t.Errorf("category viewed-set changed: %v", s)
	}
	if s, _ := tracker.Viewed(ctx, "u2", types.Algorithmic); len(s) != 1 {
		t.Errorf("other user's viewed-set changed: %v", s)
	}

	// The retry after a reset draws again.
	sel, err = e.SelectNext(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Exhausted || sel.Video == nil {
		t.Errorf("draw after reset = %+v, want a video", sel)
	}
}

func TestSelectNext_ModesAreDisjoint(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 1})
	tracker := newTracker(t)
	e := NewEngine(cat, mapPreferences{}, tracker)
	ctx := context.Background()

	sel, err := e.SelectNext(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Video == nil {
		t.Fatal("expected a video in algorithmic mode")
	}

	// The same video is still fresh in category mode.
	sel, err = e.SelectNext(ctx, "u1", "Comedy")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Exhausted || sel.Video == nil || sel.Video.Path != "/videos/Comedy/Comedy1.mp4" {
		t.Errorf("category draw = %+v, want Comedy1", sel)
	}
}

func TestSelectNext_MarkFailureStillReturnsSelection(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 2})
	tracker := newTracker(t)
	v := failingViewed{ViewedSet: tracker, markErr: store.ErrUnavailable}
	e := NewEngine(cat, mapPreferences{}, v)
	ctx := context.Background()

	sel, err := e.SelectNext(ctx, "u1", "")
	if err != nil {
		t.Fatalf("mark failure surfaced: %v", err)
	}
	if sel.Video == nil {
		t.Fatal("expected a video despite mark failure")
	}

	if s, _ := tracker.Viewed(ctx, "u1", types.Algorithmic); len(s) != 0 {
		t.Errorf("viewed-set = %v, want empty", s)
	}
}

func TestSelectNext_ReadFailuresAreUnavailable(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 2})
	ctx := context.Background()

	t.Run("viewed-set", func(t *testing.T) {
		v := failingViewed{ViewedSet: newTracker(t), readErr: fmt.Errorf("read viewed set: %w", store.ErrUnavailable)}
		e := NewEngine(cat, mapPreferences{}, v)
		if _, err := e.SelectNext(ctx, "u1", ""); !errors.Is(err, store.ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("preferences", func(t *testing.T) {
		prefs := mapPreferences{err: fmt.Errorf("read preferences: %w", store.ErrUnavailable)}
		e := NewEngine(cat, prefs, newTracker(t))
		if _, err := e.SelectNext(ctx, "u1", ""); !errors.Is(err, store.ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("category mode skips preferences", func(t *testing.T) {
		prefs := mapPreferences{err: store.ErrUnavailable}
		e := NewEngine(cat, prefs, newTracker(t))
		if _, err := e.SelectNext(ctx, "u1", "Comedy"); err != nil {
			t.Errorf("category draw failed: %v", err)
		}
	})
}

func TestSelectNext_NoRepeatsBeforeExhaustion(t *testing.T) {
	cat := newCatalog(map[string]int{"Comedy": 5, "Food": 4, "Music": 3})
	prefs := mapPreferences{scores: map[string]float64{"Comedy": 6, "Food": 2}}
	e := NewEngine(cat, prefs, newTracker(t), seeded(11))
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 12; i++ {
		sel, err := e.SelectNext(ctx, "u1", "")
		if err != nil {
			t.Fatal(err)
		}
		if sel.Exhausted {
			t.Fatalf("draw %d exhausted early", i)
		}
		if seen[sel.Video.Path] {
			t.Fatalf("draw %d repeated %s", i, sel.Video.Path)
		}
		seen[sel.Video.Path] = true
	}

	sel, err := e.SelectNext(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if !sel.Exhausted {
		t.Errorf("draw 13 = %+v, want exhausted", sel)
	}
}
