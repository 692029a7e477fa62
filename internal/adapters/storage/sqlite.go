// Package storage implements the SQLite-based persistence layer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Config holds SQLite configuration options.
type Config struct {
	Path        string
	JournalMode string // WAL, DELETE, TRUNCATE
	Synchronous string // OFF, NORMAL, FULL
	CacheSize   int    // in KB (negative for KB, positive for pages)
	MmapSize    int64  // in bytes
	BusyTimeout int    // in milliseconds
}

// DefaultConfig returns the default SQLite configuration for a database file.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		CacheSize:   -8000, // 8MB
		MmapSize:    0,
		BusyTimeout: 5000,
	}
}

// DB wraps the SQLite database connection.
type DB struct {
	conn   *sql.DB
	config Config
}

// New opens the history database, creating its directory and schema.
func New(config Config) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open database with optimized settings
	dsn := fmt.Sprintf("%s?_journal_mode=%s&_synchronous=%s&_busy_timeout=%d",
		config.Path,
		config.JournalMode,
		config.Synchronous,
		config.BusyTimeout,
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		config: config,
	}

	// Apply additional PRAGMAs
	if err := db.applyPragmas(); err != nil {
		conn.Close()
		return nil, err
	}

	// Initialize schema
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// applyPragmas applies SQLite performance optimizations.
func (db *DB) applyPragmas() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.config.CacheSize),
		fmt.Sprintf("PRAGMA mmap_size = %d", db.config.MmapSize),
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	schema := `
	-- Build history
	CREATE TABLE IF NOT EXISTS builds (
		id BLOB(16) PRIMARY KEY,
		kind TEXT NOT NULL,
		script TEXT NOT NULL,
		target TEXT NOT NULL,
		sandbox INTEGER NOT NULL DEFAULT 0,
		source_hash TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		exit_code INTEGER NOT NULL DEFAULT 0,
		artifacts JSON,
		error TEXT,
		created_at INTEGER NOT NULL,
		completed_at INTEGER,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_builds_status ON builds(status);
	CREATE INDEX IF NOT EXISTS idx_builds_script ON builds(script);
	`

	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.config.Path
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
