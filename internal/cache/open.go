package cache

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/config"
)

// Open builds the Cache selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg config.CacheConfig) (*Cache, error) {
	ttl := config.HoursToDuration(cfg.TTLHours)

	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "", "file":
		backend, err = NewFileBackend(cfg.Dir)
	case "sqlite":
		backend, err = NewSQLiteBackend(ctx, cfg.SQLitePath)
	case "redis":
		backend, err = NewRedisBackend(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, ttl)
	default:
		return nil, eris.Errorf("cache: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(backend, ttl), nil
}
