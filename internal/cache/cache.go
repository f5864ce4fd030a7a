// Package cache stores normalized news results per company with a
// time-to-live.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
)

var (
	// ErrMiss is returned by Get for absent, expired, empty or unreadable
	// entries.
	ErrMiss = eris.New("cache: miss")

	// ErrNotFound is returned by a Backend when no entry exists for a key.
	ErrNotFound = eris.New("cache: entry not found")
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 24 * time.Hour

// Entry is one stored result set.
type Entry struct {
	Key      string           `json:"-"`
	Payload  []model.NewsItem `json:"payload"`
	StoredAt time.Time        `json:"stored_at"`
}

// Backend persists entries. Implementations must make Store atomic with
// respect to concurrent readers in other processes.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, error)
	Store(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	// Purge removes entries stored before cutoff and reports how many.
	Purge(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// Cache applies the TTL on top of a Backend and never fails its caller.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Cache. A non-positive ttl uses DefaultTTL.
func New(backend Backend, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{backend: backend, ttl: ttl, now: time.Now}
}

// WithNow overrides the clock used for writes and expiry.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.now = now
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached items for key. An entry whose age is at least the
// TTL is a miss and is deleted best-effort. An entry with no items is a
// miss so an all-tiers-failed run is retried next time.
func (c *Cache) Get(ctx context.Context, key string) ([]model.NewsItem, error) {
	log := zap.L().With(zap.String("cache_key", key))

	e, err := c.backend.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		log.Warn("cache: unreadable entry, treating as miss", zap.Error(err))
		return nil, ErrMiss
	}

	if c.now().Sub(e.StoredAt) >= c.ttl {
		log.Debug("cache: entry expired", zap.Time("stored_at", e.StoredAt))
		if err := c.backend.Delete(ctx, key); err != nil {
			log.Debug("cache: delete expired entry failed", zap.Error(err))
		}
		return nil, ErrMiss
	}
	if len(e.Payload) == 0 {
		return nil, ErrMiss
	}
	return e.Payload, nil
}

// Lookup returns the cached items for company. On a miss it falls back to
// the company's legacy key so files written before keys were suffixed are
// still served.
func (c *Cache) Lookup(ctx context.Context, company string) ([]model.NewsItem, error) {
	items, err := c.Get(ctx, Key(company))
	if err == nil {
		return items, nil
	}
	legacy := LegacyKey(company)
	if legacy == "" {
		return nil, err
	}
	return c.Get(ctx, legacy)
}

// Put stores items under key. Write failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, key string, items []model.NewsItem) {
	if items == nil {
		items = []model.NewsItem{}
	}
	err := c.backend.Store(ctx, Entry{Key: key, Payload: items, StoredAt: c.now().UTC()})
	if err != nil {
		zap.L().Warn("cache: write failed", zap.String("cache_key", key), zap.Error(err))
	}
}

// Purge removes every entry older than the TTL.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	n, err := c.backend.Purge(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return n, eris.Wrap(err, "cache: purge")
	}
	return n, nil
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}
