package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/model"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func profile(id, runID, name string, created time.Time) *model.CompanyProfile {
	return &model.CompanyProfile{
		ID:        id,
		RunID:     runID,
		InputName: name,
		Canonical: model.Identity{InputName: name, ResolvedName: name, NameVariants: []string{name}},
		Pipeline:  model.EmptyPipeline(),
		Financial: model.Financial{Filings: []model.Filing{}, Provenance: []model.Provenance{}},
		News:      []model.NewsItem{},
		CreatedAt: created,
	}
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	a := profile("id-a", "run-1", "Acme Inc.", t0)
	b := profile("id-b", "run-1", "Genentech", t0.Add(time.Minute))
	c := profile("id-c", "run-2", "Acme Inc.", t0.Add(time.Hour))
	for _, p := range []*model.CompanyProfile{a, b, c} {
		require.NoError(t, s.SaveProfile(ctx, p))
	}
	assert.ErrorIs(t, s.SaveProfile(ctx, a), ErrExists)

	got, err := s.GetProfile(ctx, "id-b")
	require.NoError(t, err)
	assert.Equal(t, "Genentech", got.Canonical.ResolvedName)
	assert.True(t, got.CreatedAt.Equal(b.CreatedAt))

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.ListProfiles(ctx, ProfileFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"id-c", "id-b", "id-a"}, ids(all))

	acme, err := s.ListProfiles(ctx, ProfileFilter{Name: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-c", "id-a"}, ids(acme))

	run1, err := s.ListProfiles(ctx, ProfileFilter{RunID: "run-1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-b"}, ids(run1))

	none, err := s.ListProfiles(ctx, ProfileFilter{Name: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Error(t, s.SaveProfile(ctx, &model.CompanyProfile{}))
}

func ids(ps []model.CompanyProfile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
