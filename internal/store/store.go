// Package store persists company profiles.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
)

// ErrNotFound is returned by GetProfile for an unknown id.
var ErrNotFound = eris.New("store: profile not found")

// ErrExists is returned by SaveProfile when the id is already stored.
// Profiles are immutable; a rerun saves a new profile.
var ErrExists = eris.New("store: profile already exists")

// DefaultListLimit caps ListProfiles when the filter sets no limit.
const DefaultListLimit = 100

// ProfileFilter specifies criteria for listing profiles.
type ProfileFilter struct {
	// Name matches resolved or input names case-insensitively by substring.
	Name  string `json:"name,omitempty"`
	RunID string `json:"run_id,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (f ProfileFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

func (f ProfileFilter) matches(p *model.CompanyProfile) bool {
	if f.RunID != "" && p.RunID != f.RunID {
		return false
	}
	if f.Name == "" {
		return true
	}
	n := strings.ToLower(f.Name)
	return strings.Contains(strings.ToLower(p.Canonical.ResolvedName), n) ||
		strings.Contains(strings.ToLower(p.InputName), n)
}

// Store defines the persistence interface for profiles.
type Store interface {
	SaveProfile(ctx context.Context, p *model.CompanyProfile) error
	GetProfile(ctx context.Context, id string) (*model.CompanyProfile, error)
	// ListProfiles returns matching profiles, newest first.
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.CompanyProfile, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func validate(p *model.CompanyProfile) error {
	if p == nil {
		return eris.New("store: nil profile")
	}
	if p.ID == "" {
		return eris.New("store: profile has no id")
	}
	return nil
}

func newestFirst(ps []model.CompanyProfile) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
