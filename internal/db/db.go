package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twardoch/zmarkdown/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version. It must equal
// len(migrations).
const CurrentSchemaVersion = 1

// FileName is the database file created under the base directory.
const FileName = "zmd.db"

// Init initializes the SQLite render cache at baseDir/zmd.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.zmd.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Best-effort, may not work on all platforms
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrations holds the schema steps in order; migrations[i] upgrades
// user_version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS renders (
	  id           TEXT PRIMARY KEY,
	  cache_key    TEXT NOT NULL UNIQUE,
	  target       TEXT NOT NULL,
	  options_key  TEXT NOT NULL,
	  source_hash  TEXT NOT NULL,
	  source_chars INTEGER NOT NULL,
	  payload      BLOB NOT NULL,
	  hits         INTEGER NOT NULL DEFAULT 0,
	  created_at   INTEGER NOT NULL,
	  accessed_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_renders_target_accessed
	ON renders(target, accessed_at);

	CREATE INDEX IF NOT EXISTS idx_renders_accessed
	ON renders(accessed_at);
	`,
}

// migrate applies every step above the stored user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		if _, err := db.Exec(migrations[v]); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := SetUserVersion(db, v+1); err != nil {
			return err
		}
	}
	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
