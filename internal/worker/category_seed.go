package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/reel/internal/catalog"
)

// UserLister lists every known account.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// PreferenceSeeder seeds default preference rows for a user.
type PreferenceSeeder interface {
	Initialize(ctx context.Context, userID string, categories []string) (int64, error)
}

// CategorySeedWorker periodically seeds a preference row for every user and
// every category currently in the catalog, so a category folder added while
// the server runs becomes weighted without a fresh login.
type CategorySeedWorker struct {
	users    UserLister
	seeder   PreferenceSeeder
	catalog  catalog.Resolver
	interval time.Duration
}

// NewCategorySeedWorker creates a worker with the given collaborators and interval.
func NewCategorySeedWorker(users UserLister, seeder PreferenceSeeder, cat catalog.Resolver, interval time.Duration) *CategorySeedWorker {
	return &CategorySeedWorker{
		users:    users,
		seeder:   seeder,
		catalog:  cat,
		interval: interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Runs one cycle immediately so existing users pick up categories added
// while the server was down.
func (w *CategorySeedWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "category-seed",
		"interval", w.interval.String(),
	)

	w.runSeed(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "category-seed",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runSeed(ctx)
		}
	}
}

// runSeed executes a single seeding cycle. A failure for one user is logged
// and the cycle moves on to the next.
func (w *CategorySeedWorker) runSeed(ctx context.Context) {
	start := time.Now()

	names := catalog.Names(w.catalog.List(ctx))
	if len(names) == 0 {
		slog.Debug("seed cycle skipped",
			"component", "worker",
			"action", "seed_skip",
			"reason", "empty_catalog",
		)
		return
	}

	userIDs, err := w.users.ListUserIDs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("list users failed",
			"component", "worker",
			"action", "seed_failed",
			"error", err,
		)
		return
	}

	var created int64
	var failed int
	for _, id := range userIDs {
		if ctx.Err() != nil {
			return
		}
		n, err := w.seeder.Initialize(ctx, id, names)
		if err != nil {
			failed++
			slog.Warn("seed user failed",
				"component", "worker",
				"action", "seed_user_failed",
				"user_id", id,
				"error", err,
			)
			continue
		}
		created += n
	}

	slog.Info("seed cycle completed",
		"component", "worker",
		"action", "seed_complete",
		"users", len(userIDs),
		"categories", len(names),
		"created", created,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
