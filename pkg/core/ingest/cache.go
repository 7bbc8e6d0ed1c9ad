package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"financial_catalog/pkg/core/merge"
)

// StatementCache stores parsed statements on disk, one JSON file per
// (CIK, accession, statement type). Accepted filings never change, so
// entries do not expire.
type StatementCache struct {
	cacheDir string
}

// NewStatementCache creates a cache rooted at dir.
func NewStatementCache(dir string) (*StatementCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &StatementCache{cacheDir: dir}, nil
}

func (c *StatementCache) cacheKey(f Filing, t merge.StatementType) string {
	return fmt.Sprintf("%s_%s_%s", f.CIK, f.Folder(), t)
}

func (c *StatementCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

// Get returns the cached statement, or false when absent or unreadable.
func (c *StatementCache) Get(f Filing, t merge.StatementType) (*merge.StructuredStatement, bool) {
	data, err := os.ReadFile(c.filePath(c.cacheKey(f, t)))
	if err != nil {
		return nil, false
	}
	var stmt merge.StructuredStatement
	if err := json.Unmarshal(data, &stmt); err != nil {
		return nil, false
	}
	return &stmt, true
}

// Set stores a parsed statement.
func (c *StatementCache) Set(f Filing, t merge.StatementType, stmt *merge.StructuredStatement) error {
	data, err := json.Marshal(stmt)
	if err != nil {
		return err
	}
	path := c.filePath(c.cacheKey(f, t))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Dir returns the cache directory.
func (c *StatementCache) Dir() string {
	return c.cacheDir
}
