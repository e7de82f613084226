// Package state persists rendered HTML in a local SQLite database, keyed by
// a fingerprint of the whole content tree. Repositories stay authoritative;
// the cache is populated lazily and is transparent to callers. Any change
// anywhere under the content root produces a new fingerprint, which
// invalidates every cached render at once.
package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a fingerprint-scoped render cache.
type Cache struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the cache database. Use ":memory:" for an ephemeral
// cache, or a file path for persistent storage.
func Open(dbPath string) (*Cache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		fingerprint TEXT NOT NULL,
		cache_key TEXT NOT NULL,
		html TEXT NOT NULL,
		created INTEGER NOT NULL,
		PRIMARY KEY (fingerprint, cache_key)
	);
	CREATE INDEX IF NOT EXISTS idx_renders_fingerprint ON renders(fingerprint);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Fingerprint hashes the recursive file listing of contentDir: relative
// path, modification time and size of every regular file. A missing
// directory fingerprints to the hash of the empty listing, so a content root
// that appears later invalidates correctly.
func Fingerprint(contentDir string) (string, error) {
	h := sha256.New()

	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == contentDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", filepath.ToSlash(rel), info.ModTime().UnixNano(), info.Size())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk content directory: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get looks up cached HTML. A miss is (_, false, nil).
func (c *Cache) Get(ctx context.Context, fingerprint, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var html string
	err := c.db.QueryRowContext(ctx,
		"SELECT html FROM renders WHERE fingerprint = ? AND cache_key = ?",
		fingerprint, key,
	).Scan(&html)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query render cache: %w", err)
	}
	return html, true, nil
}

// Put stores rendered HTML under the given fingerprint and key, replacing
// any previous entry.
func (c *Cache) Put(ctx context.Context, fingerprint, key, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO renders (fingerprint, cache_key, html, created) VALUES (?, ?, ?, ?)",
		fingerprint, key, html, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}
	return nil
}

// Purge drops every entry whose fingerprint differs from keep. Called after
// a fingerprint change so stale generations don't accumulate.
func (c *Cache) Purge(ctx context.Context, keep string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM renders WHERE fingerprint != ?", keep)
	if err != nil {
		return 0, fmt.Errorf("purge renders: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
