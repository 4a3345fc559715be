package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/reel/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore represents the SQLite-backed preference and history database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// busy_timeout is per connection, so it goes in the DSN to reach every
	// pooled connection rather than only the one enablePragmas runs on.
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Accounts ---

// CreateUser inserts a new account. Returns ErrUserExists if the email is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error) {
	user := types.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, unavailable("insert user", err)
	}

	return &user, nil
}

// GetUserByEmail looks up an account by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("query user", err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		user.CreatedAt = t
	}

	return &user, nil
}

// ListUserIDs returns every account ID, oldest first.
func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, unavailable("query users", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan user", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}

	return ids, nil
}

// --- Preferences ---

// GetPreferences returns a user's preferences ordered by score descending,
// ties broken by category name.
func (s *SQLiteStore) GetPreferences(ctx context.Context, userID string) ([]types.Preference, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, category, score
		FROM user_preferences
		WHERE user_id = ?
		ORDER BY score DESC, category ASC
	`, userID)
	if err != nil {
		return nil, unavailable("query preferences", err)
	}
	defer rows.Close()

	prefs := []types.Preference{}
	for rows.Next() {
		var p types.Preference
		if err := rows.Scan(&p.UserID, &p.Category, &p.Score); err != nil {
			return nil, unavailable("scan preference", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate preferences", err)
	}

	return prefs, nil
}

// GetPreference returns one preference row or ErrNotFound.
func (s *SQLiteStore) GetPreference(ctx context.Context, userID, category string) (*types.Preference, error) {
	var p types.Preference
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, category, score
		FROM user_preferences
		WHERE user_id = ? AND category = ?
	`, userID, category).Scan(&p.UserID, &p.Category, &p.Score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("query preference", err)
	}
	return &p, nil
}

// SetPreference overwrites the score of an existing preference row.
// Returns ErrNotFound if the row was never seeded.
func (s *SQLiteStore) SetPreference(ctx context.Context, userID, category string, score float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_preferences
		SET score = ?
		WHERE user_id = ? AND category = ?
	`, score, userID, category)
	if err != nil {
		return unavailable("update preference", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("get rows affected", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// InitializePreferences seeds a score of 1 for every category the user has
// no row for yet. Existing scores are left untouched. Returns the number of
// rows created.
func (s *SQLiteStore) InitializePreferences(ctx context.Context, userID string, categories []string) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO user_preferences (user_id, category, score)
		VALUES (?, ?, 1)
	`)
	if err != nil {
		return 0, unavailable("prepare statement", err)
	}
	defer stmt.Close()

	var created int64
	for _, category := range categories {
		result, err := stmt.ExecContext(ctx, userID, category)
		if err != nil {
			return 0, unavailable("insert preference", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, unavailable("get rows affected", err)
		}
		created += n
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit transaction", err)
	}

	return created, nil
}

// --- Viewed-set ---

// GetViewed returns the video paths surfaced to a user in the given mode.
func (s *SQLiteStore) GetViewed(ctx context.Context, userID string, mode types.Mode) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_path
		FROM viewed_videos
		WHERE user_id = ? AND mode = ?
	`, userID, mode.Key())
	if err != nil {
		return nil, unavailable("query viewed", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, unavailable("scan viewed", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate viewed", err)
	}

	return paths, nil
}

// MarkViewed records a surfaced video. Marking the same triple twice is a no-op.
func (s *SQLiteStore) MarkViewed(ctx context.Context, userID, videoPath string, mode types.Mode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO viewed_videos (user_id, video_path, mode, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, videoPath, mode.Key(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return unavailable("insert viewed", err)
	}
	return nil
}

// ResetViewed deletes the viewed-set for exactly one (user, mode) pair.
func (s *SQLiteStore) ResetViewed(ctx context.Context, userID string, mode types.Mode) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM viewed_videos
		WHERE user_id = ? AND mode = ?
	`, userID, mode.Key())
	if err != nil {
		return 0, unavailable("delete viewed", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("get rows affected", err)
	}
	return n, nil
}

// --- Interaction log ---

// AppendInteraction writes an event to the interaction log, assigning an ID
// and timestamp when they are unset.
func (s *SQLiteStore) AppendInteraction(ctx context.Context, event types.InteractionEvent) (*types.InteractionEvent, error) {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_interactions (id, user_id, video_path, category, interaction_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.UserID, event.VideoPath, event.Category, string(event.InteractionType),
		event.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, unavailable("insert interaction", err)
	}

	return &event, nil
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM video_interactions)
	`).Scan(&stats.UserCount, &stats.InteractionCount)
	if err != nil {
		return nil, unavailable("query stats", err)
	}
	return &stats, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
