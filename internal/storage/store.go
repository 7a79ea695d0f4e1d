// Package storage implements the repositories on a single sqlite
// database. The (habit_id, day) unique constraint is the load-bearing
// invariant: log upserts resolve against it so duplicate toggles can
// never create duplicate rows.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/EnguerranCA/HabitHisson/internal/storage/migrations"
)

type Store struct {
	db *sql.DB

	Habits   *HabitRepo
	Logs     *LogRepo
	Users    *UserRepo
	Sessions *SessionRepo
}

// Open opens (creating if needed) the sqlite database at path and runs
// pending migrations. Use path ":memory:" for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The driver serializes access per connection; a single connection
	// also keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db}
	s.Habits = &HabitRepo{db: db}
	s.Logs = &LogRepo{db: db}
	s.Users = &UserRepo{db: db}
	s.Sessions = &SessionRepo{db: db}
	return s, nil
}

// Ping reports whether the database is reachable. Used by readiness
// checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
