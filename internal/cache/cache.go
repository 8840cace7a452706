// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists positive abstract lookups in SQLite, keyed by
// normalized title, so repeated runs skip the adapter chain.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Store is an SQLite-backed abstract cache. It satisfies resolver.Cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS abstracts (
			title_key TEXT PRIMARY KEY,
			abstract TEXT NOT NULL,
			source TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_abstracts_source ON abstracts(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached result for key, if any.
func (s *Store) Get(ctx context.Context, key string) (types.SourceResult, bool, error) {
	var abstract, source string
	err := s.db.QueryRowContext(ctx,
		`SELECT abstract, source FROM abstracts WHERE title_key = ?`, key,
	).Scan(&abstract, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SourceResult{}, false, nil
	}
	if err != nil {
		return types.SourceResult{}, false, fmt.Errorf("querying cache: %w", err)
	}
	return types.SourceResult{Found: true, Abstract: abstract, Source: source}, true, nil
}

// Put stores a positive result. Misses and empty abstracts are ignored.
func (s *Store) Put(ctx context.Context, key string, r types.SourceResult) error {
	if !r.Found || r.Abstract == "" || key == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO abstracts (title_key, abstract, source, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(title_key) DO UPDATE SET
			abstract = excluded.abstract,
			source = excluded.source,
			fetched_at = excluded.fetched_at`,
		key, r.Abstract, r.Source, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Stats summarizes cache contents.
type Stats struct {
	Entries  int
	BySource map[string]int
}

// Stats counts cached entries, in total and per source.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, count(*) FROM abstracts GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	defer rows.Close()

	st := Stats{BySource: make(map[string]int)}
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return Stats{}, fmt.Errorf("scanning cache stats: %w", err)
		}
		st.BySource[source] = n
		st.Entries += n
	}
	return st, rows.Err()
}
