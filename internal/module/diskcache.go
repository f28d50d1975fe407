package module

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DiskCache is an optional persistent cache for BufferKind modules,
// keyed by resolved absolute path. Script and module evaluation is
// never cached here — only their values depend on the live
// environment they close over, which cannot be serialized; raw buffer
// contents (assets, data files pulled in via import) are the one shape
// safe to memoize across process runs.
type DiskCache struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenDiskCache opens (creating if necessary) a sqlite-backed cache at
// dbPath.
func OpenDiskCache(dbPath string) (*DiskCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("module: opening disk cache: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS buffer_modules (
	path TEXT PRIMARY KEY,
	content BLOB NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("module: preparing disk cache schema: %w", err)
	}
	return &DiskCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *DiskCache) Close() error {
	return c.db.Close()
}

// Get returns the cached buffer for path, if present.
func (c *DiskCache) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var content []byte
	err := c.db.QueryRow(`SELECT content FROM buffer_modules WHERE path = ?`, path).Scan(&content)
	if err != nil {
		return nil, false
	}
	return content, true
}

// Put stores buf under path, overwriting any prior entry.
func (c *DiskCache) Put(path string, buf []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.db.Exec(`INSERT INTO buffer_modules(path, content) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content`, path, buf)
}
