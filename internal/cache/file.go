package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
)

// FileBackend keeps one JSON file per key under a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "cache: create dir")
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

type fileEntry struct {
	StoredAt time.Time        `json:"stored_at"`
	Payload  []model.NewsItem `json:"payload"`
}

// Load reads an entry. Files holding a bare JSON array are read with the
// file's modification time as the write time.
func (b *FileBackend) Load(_ context.Context, key string) (Entry, error) {
	p := b.path(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, eris.Wrapf(err, "cache: read %s", key)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []model.NewsItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Entry{}, eris.Wrapf(err, "cache: decode %s", key)
		}
		info, err := os.Stat(p)
		if err != nil {
			return Entry{}, eris.Wrapf(err, "cache: stat %s", key)
		}
		return Entry{Key: key, Payload: items, StoredAt: info.ModTime()}, nil
	}

	var fe fileEntry
	if err := json.Unmarshal(trimmed, &fe); err != nil {
		return Entry{}, eris.Wrapf(err, "cache: decode %s", key)
	}
	if fe.StoredAt.IsZero() {
		return Entry{}, eris.Errorf("cache: %s has no stored_at", key)
	}
	return Entry{Key: key, Payload: fe.Payload, StoredAt: fe.StoredAt}, nil
}

// Store writes through a temp file and rename so readers never see a
// partial entry.
func (b *FileBackend) Store(_ context.Context, e Entry) error {
	data, err := json.MarshalIndent(fileEntry{StoredAt: e.StoredAt, Payload: e.Payload}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: marshal entry")
	}

	tmp, err := os.CreateTemp(b.dir, "."+e.Key+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "cache: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "cache: write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "cache: close temp file")
	}
	if err := os.Rename(tmpName, b.path(e.Key)); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "cache: rename temp file")
	}
	return nil
}

// Delete removes an entry. A missing entry is not an error.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "cache: delete %s", key)
	}
	return nil
}

// Purge removes entries stored before cutoff. Unreadable entries are
// removed too.
func (b *FileBackend) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return 0, eris.Wrap(err, "cache: list dir")
	}

	removed := 0
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		e, err := b.Load(ctx, key)
		if err == nil && !e.StoredAt.Before(cutoff) {
			continue
		}
		if err := b.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }
