// Package scancache persists the result of scanning an archive package
// (GCF, ZIP) so a second mount of the same file, unchanged since last scan,
// can skip re-reading it entirely. Grounded on SQLiteBackend's three-layer
// shape, narrowed to the one table this cache actually needs: an in-memory
// B-tree of path keys over a single SQLite table holding the serialized
// scan result and the stat fingerprint it was captured against.
package scancache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite"
)

// Entry is one cached directory entry, shaped generically enough to cover
// every package reader's FileInfo fields that matter for a re-mount:
// relative path, size, and whatever reader-specific position information
// (block index, data offset, key) lets the reader reconstruct its Directory
// tree without walking the archive again.
type Entry struct {
	RelPath string            `json:"rel_path"`
	Name    string            `json:"name"`
	IsDir   bool              `json:"is_dir"`
	Size    int64             `json:"size"`
	Extra   map[string]int64  `json:"extra,omitempty"`
	Key     string            `json:"key,omitempty"`
}

// scanResult is what gets marshaled into the cache row: the fingerprint the
// archive had when scanned, plus the entries Scan produced.
type scanResult struct {
	ModTimeUnix int64   `json:"mod_time_unix"`
	Size        int64   `json:"size"`
	Entries     []Entry `json:"entries"`
}

// Cache wraps a SQLite-backed key/value store keyed by archive path. A B-tree
// mirrors the set of cached paths in memory so Lookup's common case (cache
// miss on a path never scanned before) doesn't need to touch SQLite at all.
type Cache struct {
	mu    sync.RWMutex
	db    *sql.DB
	paths *btree.Map[string, struct{}]
}

// Open creates or attaches to a scan-result cache at dbPath (":memory:" is
// valid for a process-local, non-persistent cache).
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scan_cache (
		path TEXT PRIMARY KEY,
		mod_time_unix INTEGER NOT NULL,
		size INTEGER NOT NULL,
		payload BLOB NOT NULL,
		cached_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	c := &Cache{db: db, paths: btree.NewMap[string, struct{}](0)}

	rows, err := db.Query("SELECT path FROM scan_cache")
	if err != nil {
		db.Close()
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			db.Close()
			return nil, err
		}
		c.paths.Set(p, struct{}{})
	}

	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached entries for path if a row exists and its
// fingerprint (modTime, size) matches what the caller just stat'd — a
// mismatch means the archive changed since it was last scanned, so the
// caller should re-scan and Store the fresh result.
func (c *Cache) Lookup(path string, modTime time.Time, size int64) ([]Entry, bool) {
	c.mu.RLock()
	_, known := c.paths.Get(path)
	c.mu.RUnlock()
	if !known {
		return nil, false
	}

	var modUnix, cachedSize int64
	var payload []byte
	row := c.db.QueryRow("SELECT mod_time_unix, size, payload FROM scan_cache WHERE path = ?", path)
	if err := row.Scan(&modUnix, &cachedSize, &payload); err != nil {
		return nil, false
	}
	if modUnix != modTime.Unix() || cachedSize != size {
		return nil, false
	}

	var result scanResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false
	}
	return result.Entries, true
}

// Store records entries as the scan result for path at the given
// fingerprint, replacing any prior entry.
func (c *Cache) Store(path string, modTime time.Time, size int64, entries []Entry) error {
	result := scanResult{ModTimeUnix: modTime.Unix(), Size: size, Entries: entries}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(context.Background(), `
		INSERT INTO scan_cache (path, mod_time_unix, size, payload, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mod_time_unix = excluded.mod_time_unix,
			size = excluded.size,
			payload = excluded.payload,
			cached_at = excluded.cached_at`,
		path, modTime.Unix(), size, payload, time.Now().Unix())
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.paths.Set(path, struct{}{})
	c.mu.Unlock()
	return nil
}

// Invalidate drops any cached result for path.
func (c *Cache) Invalidate(path string) error {
	if _, err := c.db.Exec("DELETE FROM scan_cache WHERE path = ?", path); err != nil {
		return err
	}
	c.mu.Lock()
	c.paths.Delete(path)
	c.mu.Unlock()
	return nil
}
