package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/hyperengineering/reel/internal/types"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reel.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_NewSQLiteStore_InMemory(t *testing.T) {
	db, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// Migrations and queries must see the same in-memory database.
	if _, err := db.GetStats(context.Background()); err != nil {
		t.Fatalf("GetStats on :memory: store: %v", err)
	}
}

// --- Accounts ---

func TestCreateUser_AssignsULID(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser(context.Background(), "a@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	if len(user.ID) != 26 {
		t.Errorf("expected 26-char ULID, got %q", user.ID)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@example.com", "hash"); err != nil {
		t.Fatal(err)
	}
	_, err := s.CreateUser(ctx, "a@example.com", "other")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "a@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || got.PasswordHash != "hash" {
		t.Errorf("got %+v, want ID %s with hash", got, created.ID)
	}

	if _, err := s.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUserIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var want []string
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		u, err := s.CreateUser(ctx, email, "h")
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, u.ID)
	}

	got, err := s.ListUserIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// --- Preferences ---

func TestInitializePreferences_SeedsAtOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.InitializePreferences(ctx, "u1", []string{"Comedy", "Music"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("created = %d, want 2", n)
	}

	prefs, err := s.GetPreferences(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs) != 2 {
		t.Fatalf("got %d prefs, want 2", len(prefs))
	}
	for _, p := range prefs {
		if p.Score != 1 {
			t.Errorf("%s score = %v, want 1", p.Category, p.Score)
		}
	}
}

func TestInitializePreferences_KeepsExistingScores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InitializePreferences(ctx, "u1", []string{"Comedy"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(ctx, "u1", "Comedy", 4); err != nil {
		t.Fatal(err)
	}

	n, err := s.InitializePreferences(ctx, "u1", []string{"Comedy", "Dance"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("created = %d, want 1", n)
	}

	p, err := s.GetPreference(ctx, "u1", "Comedy")
	if err != nil {
		t.Fatal(err)
	}
	if p.Score != 4 {
		t.Errorf("Comedy score = %v, want 4", p.Score)
	}
}

func TestInitializePreferences_Empty(t *testing.T) {
	s := newTestStore(t)

	n, err := s.InitializePreferences(context.Background(), "u1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("created = %d, want 0", n)
	}
}

func TestGetPreferences_OrderedByScoreDesc(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InitializePreferences(ctx, "u1", []string{"Music", "Comedy", "Food", "Dance"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(ctx, "u1", "Food", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(ctx, "u1", "Music", 5.5); err != nil {
		t.Fatal(err)
	}

	prefs, err := s.GetPreferences(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Music", "Food", "Comedy", "Dance"}
	for i, p := range prefs {
		if p.Category != want[i] {
			t.Errorf("prefs[%d] = %s, want %s", i, p.Category, want[i])
		}
	}
}

func TestGetPreferences_UnknownUserIsEmpty(t *testing.T) {
	s := newTestStore(t)

	prefs, err := s.GetPreferences(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if prefs == nil || len(prefs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", prefs)
	}
}

func TestSetPreference_MissingRow(t *testing.T) {
	s := newTestStore(t)

	err := s.SetPreference(context.Background(), "u1", "Comedy", 2)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPreference_MissingRow(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPreference(context.Background(), "u1", "Comedy")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetPreference_RejectsBelowFloor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InitializePreferences(ctx, "u1", []string{"Comedy"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(ctx, "u1", "Comedy", 0); err == nil {
		t.Error("expected CHECK constraint failure for score 0")
	}
}

// --- Viewed-set ---

func TestMarkViewed_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.MarkViewed(ctx, "u1", "/videos/Comedy/a.mp4", types.Algorithmic); err != nil {
			t.Fatal(err)
		}
	}

	viewed, err := s.GetViewed(ctx, "u1", types.Algorithmic)
	if err != nil {
		t.Fatal(err)
	}
	if len(viewed) != 1 {
		t.Errorf("viewed size = %d, want 1", len(viewed))
	}
}

func TestMarkViewed_CategoryModeIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mode := types.CategoryMode("Comedy")

	for i := 0; i < 3; i++ {
		if err := s.MarkViewed(ctx, "u1", "/videos/Comedy/a.mp4", mode); err != nil {
			t.Fatal(err)
		}
	}

	viewed, err := s.GetViewed(ctx, "u1", mode)
	if err != nil {
		t.Fatal(err)
	}
	if len(viewed) != 1 {
		t.Errorf("viewed size = %d, want 1", len(viewed))
	}
}

func TestGetViewed_ModesAreDisjoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MarkViewed(ctx, "u1", "/videos/Comedy/a.mp4", types.Algorithmic); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkViewed(ctx, "u1", "/videos/Comedy/b.mp4", types.CategoryMode("Comedy")); err != nil {
		t.Fatal(err)
	}

	algo, err := s.GetViewed(ctx, "u1", types.Algorithmic)
	if err != nil {
		t.Fatal(err)
	}
	cat, err := s.GetViewed(ctx, "u1", types.CategoryMode("Comedy"))
	if err != nil {
		t.Fatal(err)
	}

	if len(algo) != 1 || algo[0] != "/videos/Comedy/a.mp4" {
		t.Errorf("algorithmic viewed = %v", algo)
	}
	if len(cat) != 1 || cat[0] != "/videos/Comedy/b.mp4" {
		t.Errorf("category viewed = %v", cat)
	}
}

func TestResetViewed_OnlyClearsOneMode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	marks := []struct {
		user string
		path string
		mode types.Mode
	}{
		{"u1", "/v/1", types.Algorithmic},
		{"u1", "/v/2", types.Algorithmic},
		{"u1", "/v/1", types.CategoryMode("Comedy")},
		{"u2", "/v/1", types.Algorithmic},
	}
	for _, m := range marks {
		if err := s.MarkViewed(ctx, m.user, m.path, m.mode); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.ResetViewed(ctx, "u1", types.Algorithmic)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	check := func(user string, mode types.Mode, want int) {
		t.Helper()
		viewed, err := s.GetViewed(ctx, user, mode)
		if err != nil {
			t.Fatal(err)
		}
		if len(viewed) != want {
			t.Errorf("%s %s viewed = %d, want %d", user, mode, len(viewed), want)
		}
	}
	check("u1", types.Algorithmic, 0)
	check("u1", types.CategoryMode("Comedy"), 1)
	check("u2", types.Algorithmic, 1)
}

func TestMarkViewed_ConcurrentSameVideo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.MarkViewed(ctx, "u1", "/v/race.mp4", types.Algorithmic); err != nil {
				t.Errorf("MarkViewed: %v", err)
			}
		}()
	}
	wg.Wait()

	viewed, err := s.GetViewed(ctx, "u1", types.Algorithmic)
	if err != nil {
		t.Fatal(err)
	}
	if len(viewed) != 1 {
		t.Errorf("viewed size = %d, want 1", len(viewed))
	}
}

// --- Interaction log ---

func TestAppendInteraction_AssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ev, err := s.AppendInteraction(ctx, types.InteractionEvent{
		UserID:          "u1",
		VideoPath:       "/videos/Comedy/a.mp4",
		Category:        "Comedy",
		InteractionType: types.InteractionLike,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.ID == "" {
		t.Error("ID should be assigned")
	}
	if ev.CreatedAt.IsZero() {
		t.Error("CreatedAt should be assigned")
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.InteractionCount != 1 {
		t.Errorf("InteractionCount = %d, want 1", stats.InteractionCount)
	}
}

func TestAppendInteraction_AcceptsUnknownType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AppendInteraction(context.Background(), types.InteractionEvent{
		UserID:          "u1",
		VideoPath:       "/v/a.mp4",
		Category:        "Comedy",
		InteractionType: types.InteractionType("share"),
	})
	if err != nil {
		t.Fatalf("unknown interaction type should be stored, got %v", err)
	}
}

func TestClosedStore_ReportsUnavailable(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	_, err = s.GetViewed(context.Background(), "u1", types.Algorithmic)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
