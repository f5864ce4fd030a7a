package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisKeyPrefix namespaces cache keys in a shared Redis.
const RedisKeyPrefix = "evidence:news:"

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBackend keeps entries as JSON strings with a Redis TTL matching the
// cache TTL. The stored_at check in Cache still applies.
type RedisBackend struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisBackend connects and pings the server.
func NewRedisBackend(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrap(err, "cache: redis ping")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisBackend{rdb: rdb, ttl: ttl}, nil
}

// Load reads an entry.
func (b *RedisBackend) Load(ctx context.Context, key string) (Entry, error) {
	data, err := b.rdb.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, eris.Wrap(err, "cache: redis get")
	}

	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		return Entry{}, eris.Wrapf(err, "cache: decode %s", key)
	}
	return Entry{Key: key, Payload: fe.Payload, StoredAt: fe.StoredAt}, nil
}

// Store sets an entry with expiry.
func (b *RedisBackend) Store(ctx context.Context, e Entry) error {
	data, err := json.Marshal(fileEntry{StoredAt: e.StoredAt, Payload: e.Payload})
	if err != nil {
		return eris.Wrap(err, "cache: marshal entry")
	}
	return eris.Wrap(b.rdb.Set(ctx, RedisKeyPrefix+e.Key, data, b.ttl).Err(), "cache: redis set")
}

// Delete removes an entry.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return eris.Wrap(b.rdb.Del(ctx, RedisKeyPrefix+key).Err(), "cache: redis del")
}

// Purge scans the prefix and removes entries stored before cutoff.
func (b *RedisBackend) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	iter := b.rdb.Scan(ctx, 0, RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		key := full[len(RedisKeyPrefix):]
		e, err := b.Load(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err == nil && !e.StoredAt.Before(cutoff) {
			continue
		}
		if err := b.rdb.Del(ctx, full).Err(); err != nil {
			return removed, eris.Wrap(err, "cache: redis del")
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, eris.Wrap(err, "cache: redis scan")
	}
	return removed, nil
}

// Close closes the client.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
