package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ArchiveKey returns the archive key for a URL: the first 16 hex characters
// of its SHA-256 digest plus ".html".
func ArchiveKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:16] + ".html"
}

// FileArchive stores raw content as files under a directory.
type FileArchive struct {
	dir string
}

// NewFileArchive creates a FileArchive rooted at dir. The directory is
// created on first write.
func NewFileArchive(dir string) *FileArchive {
	return &FileArchive{dir: dir}
}

// Location returns the file path for key.
func (a *FileArchive) Location(key string) string {
	return filepath.Join(a.dir, key)
}

// Get reads the archived content for key.
func (a *FileArchive) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(a.Location(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "archive: read %s", key)
	}
	return data, true, nil
}

// PutIfAbsent writes content through a temp file and a link so concurrent
// writers never expose a partial file and never replace an existing one.
func (a *FileArchive) PutIfAbsent(_ context.Context, key string, content []byte) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return eris.Wrap(err, "archive: create dir")
	}
	dst := a.Location(key)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	tmp, err := os.CreateTemp(a.dir, "."+key+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "archive: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "archive: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "archive: close temp file")
	}

	// os.Link fails if dst exists, which keeps the first writer's content.
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		// Filesystems without hard links fall back to rename.
		if rerr := os.Rename(tmpName, dst); rerr != nil {
			return eris.Wrap(rerr, "archive: rename temp file")
		}
	}
	return nil
}
