package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/reel/internal/api"
	"github.com/hyperengineering/reel/internal/auth"
	"github.com/hyperengineering/reel/internal/catalog"
	"github.com/hyperengineering/reel/internal/config"
	"github.com/hyperengineering/reel/internal/ledger"
	"github.com/hyperengineering/reel/internal/selection"
	"github.com/hyperengineering/reel/internal/store"
	"github.com/hyperengineering/reel/internal/viewed"
	"github.com/hyperengineering/reel/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "reel",
	Short: "Reel - video recommendation service",
	Long:  "Serves preference-weighted video recommendations over HTTP. Subcommands inspect local state without running the server.",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(viewedCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Initialize catalog
	resolver, err := newResolver(cfg, true)
	if err != nil {
		db.Close()
		return err
	}

	// 6. Initialize selection and feedback components
	ldg := ledger.New(db)
	tracker := viewed.NewTracker(db)
	engine := selection.NewEngine(resolver, ldg, tracker)

	tokens, err := auth.NewJWTManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL))
	if err != nil {
		db.Close()
		return err
	}
	accounts := auth.NewService(db, ldg, resolver, tokens, cfg.Auth.BcryptCost)

	// 7. Initialize HTTP router
	handler := api.NewHandler(db, resolver, engine, ldg, accounts, Version)
	routerCfg := api.RouterConfig{
		Tokens:             tokens,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		RateLimitRequests:  cfg.HTTP.RateLimitRequests,
		RateLimitWindow:    time.Duration(cfg.HTTP.RateLimitWindow),
		VideoURLPrefix:     cfg.Catalog.URLPrefix,
	}
	if !cfg.Catalog.UsesS3() {
		routerCfg.VideoRoot = cfg.Catalog.Root
	}
	router := api.NewRouter(handler, routerCfg)
	slog.Info("router initialized")

	// 8. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 9. Background workers
	var wg sync.WaitGroup
	if interval := time.Duration(cfg.Worker.CategorySeedInterval); interval > 0 {
		seedWorker := worker.NewCategorySeedWorker(db, ldg, resolver, interval)
		startWorker(ctx, &wg, "category-seed", seedWorker.Run)
	} else {
		slog.Info("worker disabled", "worker", "category-seed")
	}

	// 10. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 11. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 12. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 12a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 12b. Wait for workers to complete
	wg.Wait()

	// 12c. Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newResolver builds the catalog named by cfg. With ensureFolders set, the
// initial category folders are created under a filesystem root first.
func newResolver(cfg *config.Config, ensureFolders bool) (catalog.Resolver, error) {
	c := cfg.Catalog
	if c.UsesS3() {
		s3, err := catalog.NewS3(c.S3, c.URLPrefix, c.Extensions)
		if err != nil {
			return nil, fmt.Errorf("initialize s3 catalog: %w", err)
		}
		slog.Info("catalog initialized", "source", "s3", "bucket", c.S3.Bucket, "prefix", c.S3.Prefix)
		return s3, nil
	}

	if ensureFolders {
		if err := catalog.EnsureFolders(c.Root, c.InitialCategories, c.Extensions); err != nil {
			return nil, err
		}
	}
	slog.Info("catalog initialized", "source", "fs", "root", c.Root)
	return catalog.NewFS(c.Root, c.URLPrefix, c.Extensions), nil
}

// newLogger builds the process logger from the log section of the config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
