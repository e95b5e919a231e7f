// Package catalog stores repository metadata in a SQLite database and loads
// it as a repo.Snapshot for driver detection.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultPath is the system catalog location.
const DefaultPath = "/var/lib/drivermatch/catalog.db"

// ErrNotInitialized is returned when the catalog has no schema yet.
var ErrNotInitialized = errors.New("catalog not initialized (run 'drivermatch catalog import' first)")

// Catalog provides SQLite operations on a repository catalog.
type Catalog struct {
	db   *sql.DB
	path string
}

// Path returns the catalog location, honouring $DRIVERMATCH_CATALOG.
func Path() string {
	if path := os.Getenv("DRIVERMATCH_CATALOG"); path != "" {
		return path
	}
	return DefaultPath
}

// New opens the catalog at dbPath.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Catalog{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// FilePath returns the path the catalog was opened from.
func (c *Catalog) FilePath() string {
	return c.path
}

// CreateSchema creates all tables and indexes.
func (c *Catalog) CreateSchema() error {
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// wrapNoTable turns SQLite's missing-table error into ErrNotInitialized.
func wrapNoTable(err error) error {
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", ErrNotInitialized, err)
	}
	return err
}
