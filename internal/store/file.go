package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
)

const profileSuffix = "_profile.json"

// FileStore writes one indented JSON file per profile. Profiles from a
// run live under <dir>/<run id>/ and every file name carries the profile
// id, so no save replaces a different profile.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// SafeName turns a company name into a file name stem.
func SafeName(name string) string {
	s := strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(strings.TrimSpace(name))
	if s == "" || s == "." || s == ".." {
		return "unnamed"
	}
	return s
}

// Path returns where p is written: <safe name>_<id>_profile.json.
func (s *FileStore) Path(p *model.CompanyProfile) string {
	name := SafeName(p.Canonical.Name()) + "_" + SafeName(p.ID) + profileSuffix
	if p.RunID != "" {
		return filepath.Join(s.dir, p.RunID, name)
	}
	return filepath.Join(s.dir, name)
}

// Migrate creates the root directory.
func (s *FileStore) Migrate(_ context.Context) error {
	return eris.Wrap(os.MkdirAll(s.dir, 0o755), "store: create dir")
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// SaveProfile writes p through a temp file and rename.
func (s *FileStore) SaveProfile(_ context.Context, p *model.CompanyProfile) error {
	if err := validate(p); err != nil {
		return err
	}
	path := s.Path(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "store: create dir")
	}
	if existing, err := readProfile(path); err == nil {
		if existing.ID == p.ID {
			return ErrExists
		}
		return eris.Errorf("store: %s already holds profile %s", path, existing.ID)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: marshal profile")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "store: write profile")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "store: close profile")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "store: rename profile")
	}
	return nil
}

// GetProfile scans the directory tree for the profile with id.
func (s *FileStore) GetProfile(ctx context.Context, id string) (*model.CompanyProfile, error) {
	var found *model.CompanyProfile
	err := s.walk(ctx, func(p *model.CompanyProfile) bool {
		if p.ID == id {
			found = p
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// ListProfiles scans the directory tree.
func (s *FileStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CompanyProfile, error) {
	out := []model.CompanyProfile{}
	err := s.walk(ctx, func(p *model.CompanyProfile) bool {
		if filter.matches(p) {
			out = append(out, *p)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out)
	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}

var errStopWalk = errors.New("stop")

// walk calls fn for every readable profile until fn returns false.
func (s *FileStore) walk(ctx context.Context, fn func(*model.CompanyProfile) bool) error {
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), profileSuffix) {
			return nil
		}
		p, err := readProfile(path)
		if err != nil {
			zap.L().Debug("store: skipping unreadable profile", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !fn(p) {
			return errStopWalk
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return eris.Wrap(err, "store: scan profiles")
	}
	return nil
}

func readProfile(path string) (*model.CompanyProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p model.CompanyProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
