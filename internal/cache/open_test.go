package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/config"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.CacheConfig
	}{
		{"file", config.CacheConfig{Backend: "file", Dir: filepath.Join(dir, "files"), TTLHours: 24}},
		{"sqlite", config.CacheConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "c.db"), TTLHours: 12}},
		{"redis", config.CacheConfig{Backend: "redis", RedisAddr: mr.Addr(), TTLHours: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(context.Background(), tt.cfg)
			require.NoError(t, err)
			defer c.Close() //nolint:errcheck
			assert.Equal(t, config.HoursToDuration(tt.cfg.TTLHours), c.TTL())
		})
	}

	_, err := Open(context.Background(), config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}
