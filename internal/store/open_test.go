package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fs, err := Open(ctx, config.StoreConfig{Driver: "file", Dir: filepath.Join(dir, "profiles")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)
	assert.DirExists(t, filepath.Join(dir, "profiles"))

	ss, err := Open(ctx, config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "p.db")})
	require.NoError(t, err)
	defer ss.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, ss)

	_, err = Open(ctx, config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)

	_, err = Open(ctx, config.StoreConfig{Driver: "postgres", DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
