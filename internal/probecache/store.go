package probecache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"edlmatch/internal/media/ffprobe"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache was written by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages cached probe results.
type Store struct {
	db   *sql.DB
	path string
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string
	Entries int
	Oldest  time.Time
	Newest  time.Time
}

// Open initializes or connects to the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: cache has version %d, expected %d (run 'edlmatch cache clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Get returns the cached result for path when its size and modification
// time still match info.
func (s *Store) Get(ctx context.Context, path string, info os.FileInfo) (ffprobe.Result, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM probe_results WHERE path = ? AND size_bytes = ? AND mod_time_ns = ?`,
		path, info.Size(), info.ModTime().UnixNano(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ffprobe.Result{}, false, nil
	}
	if err != nil {
		return ffprobe.Result{}, false, fmt.Errorf("query probe cache: %w", err)
	}
	result, err := ffprobe.Parse([]byte(raw))
	if err != nil {
		return ffprobe.Result{}, false, fmt.Errorf("decode cached probe: %w", err)
	}
	return result, true, nil
}

// Put stores result for path, replacing any previous entry. Results that did
// not come from ffprobe output are re-encoded.
func (s *Store) Put(ctx context.Context, path string, info os.FileInfo, result ffprobe.Result) error {
	raw := result.RawJSON()
	if len(raw) == 0 {
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode probe result: %w", err)
		}
		raw = encoded
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO probe_results (path, size_bytes, mod_time_ns, result_json, probed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
            size_bytes = excluded.size_bytes,
            mod_time_ns = excluded.mod_time_ns,
            result_json = excluded.result_json,
            probed_at = excluded.probed_at`,
		path, info.Size(), info.ModTime().UnixNano(), string(raw), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store probe result: %w", err)
	}
	return nil
}

// Clear removes every cached entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM probe_results")
	if err != nil {
		return 0, fmt.Errorf("clear probe cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports entry count and the probe time range.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), MIN(probed_at), MAX(probed_at) FROM probe_results",
	).Scan(&stats.Entries, &oldest, &newest)
	if err != nil {
		return Stats{}, fmt.Errorf("query probe cache stats: %w", err)
	}
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(time.RFC3339Nano, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(time.RFC3339Nano, newest.String)
	}
	return stats, nil
}
