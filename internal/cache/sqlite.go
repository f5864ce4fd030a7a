package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // register driver

	"github.com/sells-group/evidence-cli/internal/model"
)

// SQLiteBackend keeps entries in a single SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS news_cache (
	key       TEXT PRIMARY KEY,
	payload   TEXT NOT NULL,
	stored_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_cache_stored_at ON news_cache(stored_at);
`

// NewSQLiteBackend opens the database at dsn in WAL mode and creates the
// table.
func NewSQLiteBackend(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteCacheSchema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "cache: migrate sqlite")
	}
	return &SQLiteBackend{db: db}, nil
}

// Load reads an entry.
func (b *SQLiteBackend) Load(ctx context.Context, key string) (Entry, error) {
	var payload string
	var storedAt int64
	err := b.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM news_cache WHERE key = ?`, key,
	).Scan(&payload, &storedAt)
	if err == sql.ErrNoRows {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, eris.Wrap(err, "cache: sqlite load")
	}

	var items []model.NewsItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return Entry{}, eris.Wrapf(err, "cache: decode %s", key)
	}
	return Entry{Key: key, Payload: items, StoredAt: time.Unix(0, storedAt).UTC()}, nil
}

// Store upserts an entry.
func (b *SQLiteBackend) Store(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return eris.Wrap(err, "cache: marshal payload")
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO news_cache (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		e.Key, string(payload), e.StoredAt.UnixNano(),
	)
	return eris.Wrap(err, "cache: sqlite store")
}

// Delete removes an entry.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM news_cache WHERE key = ?`, key)
	return eris.Wrap(err, "cache: sqlite delete")
}

// Purge removes entries stored before cutoff.
func (b *SQLiteBackend) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM news_cache WHERE stored_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite purge")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: rows affected")
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
