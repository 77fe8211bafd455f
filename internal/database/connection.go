package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// ErrStoreUnavailable marks transient persistence failures. Callers use
// errors.Is to distinguish them from programming errors; retries happen at
// the dispatcher boundary, never inside a repository.
var ErrStoreUnavailable = errors.New("store unavailable")

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// conn returns the active connection, or a store-unavailable error when the
// database never came up (degraded mode).
func conn() (*sqlx.DB, error) {
	if DB == nil {
		return nil, storeErr("conn", errors.New("not connected"))
	}
	return DB, nil
}

// Connect establishes a connection to the database and initializes the
// schema. Driver is "sqlite3" or "postgres"; dsn is a file path for sqlite.
func Connect(driver, dsn string) error {
	if driver == "sqlite3" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return storeErr("connect", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT PRIMARY KEY,
			total_prompts_shown INTEGER NOT NULL DEFAULT 0,
			last_prompt_category TEXT NOT NULL DEFAULT '',
			last_prompt_text TEXT NOT NULL DEFAULT '',
			last_shown_at TIMESTAMP,
			shown_in_cycle TEXT NOT NULL DEFAULT '{}',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_progress table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS schedule_prefs (
			user_id TEXT PRIMARY KEY,
			day_of_week INTEGER NOT NULL DEFAULT 1,
			hour INTEGER NOT NULL DEFAULT 9,
			minute INTEGER NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT true,
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schedule_prefs table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			prompt_category TEXT NOT NULL,
			prompt_text TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create journal_entries table: %w", err)
	}

	_, err = DB.Exec(`CREATE INDEX IF NOT EXISTS idx_journal_entries_user ON journal_entries(user_id, created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create journal_entries index: %w", err)
	}

	return nil
}
