package images

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Cache is a persistent index of encoded image variants, keyed by
// (source path, content hash, width). It lets rebuilds skip re-encoding
// unchanged sources.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenCache opens (or creates) the variant index at dbPath.
// Use ":memory:" for an ephemeral cache.
func OpenCache(dbPath string) (*Cache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open image cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize image cache schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS variants (
		source TEXT NOT NULL,
		hash TEXT NOT NULL,
		width INTEGER NOT NULL,
		filename TEXT NOT NULL,
		PRIMARY KEY (source, hash, width)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Lookup returns the recorded variant filename for the key, if any.
func (c *Cache) Lookup(source, hash string, width int) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var filename string
	err := c.db.QueryRow(
		"SELECT filename FROM variants WHERE source = ? AND hash = ? AND width = ?",
		source, hash, width,
	).Scan(&filename)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query image cache: %w", err)
	}
	return filename, true, nil
}

// Record stores the variant filename for the key. Older hashes of the same
// source and width are superseded, not kept.
func (c *Cache) Record(source, hash string, width int, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(
		"DELETE FROM variants WHERE source = ? AND width = ? AND hash != ?",
		source, width, hash,
	); err != nil {
		return fmt.Errorf("prune image cache: %w", err)
	}
	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO variants (source, hash, width, filename) VALUES (?, ?, ?, ?)",
		source, hash, width, filename,
	); err != nil {
		return fmt.Errorf("record image variant: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
