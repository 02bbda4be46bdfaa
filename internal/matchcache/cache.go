// Package matchcache persists TMDB lookup results in a local SQLite
// database so repeated identifications of the same title skip the network.
package matchcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"mediaid/internal/logging"
	"mediaid/internal/services"
)

// Entry is one cached lookup result. A TMDBID of zero records a confirmed
// miss so the matcher does not re-query TMDB for a title it already failed
// to resolve.
type Entry struct {
	Key        string
	TMDBID     int64
	MediaType  string
	Title      string
	Year       int
	Overview   string
	Confidence string
	Score      float64
	CachedAt   time.Time
	ExpiresAt  time.Time
}

// Negative reports whether the entry records a failed lookup.
func (e Entry) Negative() bool {
	return e.TMDBID == 0
}

// Stats summarizes cache contents and effectiveness.
type Stats struct {
	Entries  int64
	Negative int64
	Hits     int64
	Misses   int64
}

// HitRate returns the fraction of lookups served from cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store manages lookup persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	now    func() time.Time
}

const dbFileName = "lookups.db"

// Open initializes or connects to the lookup database under dir. The store
// takes an advisory file lock so two processes never write the same cache
// concurrently.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "matchcache")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "matchcache", "open", "create cache directory", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "matchcache", "open", "acquire cache lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrExternalTool, "matchcache", "open",
			fmt.Sprintf("cache at %s is locked by another process", dbPath), nil)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrExternalTool, "matchcache", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, services.Wrap(services.ErrExternalTool, "matchcache", "open",
				fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock, logger: logger, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lookup_entries (
			key TEXT PRIMARY KEY,
			tmdb_id INTEGER NOT NULL,
			media_type TEXT NOT NULL,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			overview TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL,
			score REAL NOT NULL,
			cached_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lookup_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			hits INTEGER NOT NULL DEFAULT 0,
			misses INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT OR IGNORE INTO lookup_stats (id, hits, misses) VALUES (1, 0, 0)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return services.Wrap(services.ErrExternalTool, "matchcache", "migrate", "apply schema", err)
		}
	}
	return nil
}

// Close releases the database handle and the advisory lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached entry for key. Expired and unreadable rows are
// evicted and reported as misses. Hit and miss counters update as a side
// effect.
func (s *Store) Get(ctx context.Context, key string) (*Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, tmdb_id, media_type, title, year, overview, confidence, score, cached_at, expires_at
		 FROM lookup_entries WHERE key = ?`, key)

	var entry Entry
	var cachedAt, expiresAt string
	err := row.Scan(&entry.Key, &entry.TMDBID, &entry.MediaType, &entry.Title,
		&entry.Year, &entry.Overview, &entry.Confidence, &entry.Score, &cachedAt, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, s.recordMiss(ctx)
	case err != nil:
		s.logger.Warn("evicting unreadable cache row", logging.String("key", key), logging.Error(err))
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM lookup_entries WHERE key = ?`, key); delErr != nil {
			return nil, false, services.Wrap(services.ErrExternalTool, "matchcache", "get", "evict row", delErr)
		}
		return nil, false, s.recordMiss(ctx)
	}

	entry.CachedAt, err = time.Parse(time.RFC3339Nano, cachedAt)
	if err == nil {
		entry.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
	}
	if err != nil || !entry.ExpiresAt.After(s.now()) {
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM lookup_entries WHERE key = ?`, key); delErr != nil {
			return nil, false, services.Wrap(services.ErrExternalTool, "matchcache", "get", "evict row", delErr)
		}
		return nil, false, s.recordMiss(ctx)
	}

	if err := s.recordHit(ctx); err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

// Put stores or replaces the entry under its key with the given lifetime.
func (s *Store) Put(ctx context.Context, entry Entry, ttl time.Duration) error {
	if entry.Key == "" {
		return services.Wrap(services.ErrValidation, "matchcache", "put", "entry key must not be empty", nil)
	}
	if ttl <= 0 {
		return services.Wrap(services.ErrValidation, "matchcache", "put", "ttl must be positive", nil)
	}
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookup_entries (key, tmdb_id, media_type, title, year, overview, confidence, score, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			tmdb_id = excluded.tmdb_id,
			media_type = excluded.media_type,
			title = excluded.title,
			year = excluded.year,
			overview = excluded.overview,
			confidence = excluded.confidence,
			score = excluded.score,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		entry.Key, entry.TMDBID, entry.MediaType, entry.Title, entry.Year,
		entry.Overview, entry.Confidence, entry.Score,
		now.Format(time.RFC3339Nano), now.Add(ttl).Format(time.RFC3339Nano))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "matchcache", "put", "store entry", err)
	}
	return nil
}

// Clear removes every cached entry and resets the counters. It returns the
// number of entries removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookup_entries`)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "matchcache", "clear", "delete entries", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "matchcache", "clear", "count removed", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE lookup_stats SET hits = 0, misses = 0 WHERE id = 1`); err != nil {
		return removed, services.Wrap(services.ErrExternalTool, "matchcache", "clear", "reset counters", err)
	}
	return removed, nil
}

// Prune drops expired entries without touching live ones.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM lookup_entries WHERE expires_at <= ?`,
		s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "matchcache", "prune", "delete expired", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "matchcache", "prune", "count removed", err)
	}
	return removed, nil
}

// Stats reports entry counts and the persistent hit/miss counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN tmdb_id = 0 THEN 1 ELSE 0 END), 0) FROM lookup_entries`)
	if err := row.Scan(&stats.Entries, &stats.Negative); err != nil {
		return Stats{}, services.Wrap(services.ErrExternalTool, "matchcache", "stats", "count entries", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT hits, misses FROM lookup_stats WHERE id = 1`)
	if err := row.Scan(&stats.Hits, &stats.Misses); err != nil {
		return Stats{}, services.Wrap(services.ErrExternalTool, "matchcache", "stats", "read counters", err)
	}
	return stats, nil
}

func (s *Store) recordHit(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE lookup_stats SET hits = hits + 1 WHERE id = 1`); err != nil {
		return services.Wrap(services.ErrExternalTool, "matchcache", "get", "record hit", err)
	}
	return nil
}

func (s *Store) recordMiss(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE lookup_stats SET misses = misses + 1 WHERE id = 1`); err != nil {
		return services.Wrap(services.ErrExternalTool, "matchcache", "get", "record miss", err)
	}
	return nil
}
