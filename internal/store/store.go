package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// builder renders every statement the repositories run.
var builder = entsql.Dialect(dialect.SQLite)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store holds the database handle and provides access to repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter

	// Now is the clock used for stored timestamps. nil means time.Now.
	Now func() time.Time
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		drv.Close()
		return nil, err
	}

	return &Store{db: db, drv: drv, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// BankRepo returns a BankRepo backed by this store.
func (s *Store) BankRepo() BankRepo {
	return &bankRepo{docs: documents{s: s, table: "banks"}}
}

// PoolRepo returns a PoolRepo backed by this store.
func (s *Store) PoolRepo() PoolRepo {
	return &poolRepo{docs: documents{s: s, table: "pools"}}
}

// DrawRepo returns a DrawRepo backed by this store.
func (s *Store) DrawRepo() DrawRepo {
	return &drawRepo{s: s}
}

// MasteryRepo returns a MasteryRepo backed by this store.
func (s *Store) MasteryRepo() MasteryRepo {
	return &masteryRepo{s: s}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s: s}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS banks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS draws (
		id TEXT PRIMARY KEY,
		pool_id TEXT NOT NULL,
		learner_id TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL,
		created_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS draws_learner ON draws (learner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		draw_id TEXT NOT NULL REFERENCES draws (id) ON DELETE CASCADE,
		question_id TEXT NOT NULL,
		attempt_number INTEGER NOT NULL,
		data TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS responses_draw ON responses (draw_id)`,
	`CREATE TABLE IF NOT EXISTS mastery (
		learner_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		sequence INTEGER PRIMARY KEY,
		kind TEXT NOT NULL,
		learner_id TEXT NOT NULL DEFAULT '',
		subject_id TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_kind ON events (kind, sequence)`,
	`CREATE INDEX IF NOT EXISTS events_subject ON events (subject_id, kind)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return err
		}
	}
	return ensureColumn(ctx, drv, "draws", "finished_at", "TEXT NOT NULL DEFAULT ''")
}

// ensureColumn adds a column missing from tables created by older
// versions.
func ensureColumn(ctx context.Context, drv *entsql.Driver, table, column, def string) error {
	rows := &entsql.Rows{}
	if err := drv.Query(ctx, "SELECT name FROM pragma_table_info(?)", []any{table}, rows); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if found {
		return nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, def)
	if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZPOOL_DB environment variable
// 2. $XDG_DATA_HOME/quizpool/quizpool.db
// 3. ~/.local/share/quizpool/quizpool.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZPOOL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizpool", "quizpool.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
