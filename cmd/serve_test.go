package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/profile"
	"github.com/sells-group/evidence-cli/internal/store"
)

type stubBuilder struct {
	got  []model.Identity
	errs []*profile.DomainError
}

func (s *stubBuilder) Build(_ context.Context, id model.Identity) (*model.CompanyProfile, profile.ProfileReport) {
	s.got = append(s.got, id)
	p := &model.CompanyProfile{
		ID:        "built-1",
		InputName: id.InputName,
		Canonical: id,
		Pipeline:  model.EmptyPipeline(),
		News:      []model.NewsItem{},
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	return p, profile.ProfileReport{ProfileID: p.ID, Company: id.Name(), Errors: s.errs}
}

func newTestServer(t *testing.T) (*httptest.Server, store.Store, *stubBuilder) {
	t.Helper()
	st := store.NewFileStore(t.TempDir())
	b := &stubBuilder{}
	srv := httptest.NewServer(newRouter(st, b))
	t.Cleanup(srv.Close)
	return srv, st, b
}

func seed(t *testing.T, st store.Store, id, name string, created time.Time) {
	t.Helper()
	require.NoError(t, st.SaveProfile(context.Background(), &model.CompanyProfile{
		ID:        id,
		InputName: name,
		Canonical: model.Identity{InputName: name, ResolvedName: name},
		CreatedAt: created,
	}))
}

func TestServe_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_ListProfiles(t *testing.T) {
	srv, st, _ := newTestServer(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, "a", "Acme Inc.", base)
	seed(t, st, "b", "Beta Bio", base.Add(time.Hour))
	seed(t, st, "c", "Acme Labs", base.Add(2*time.Hour))

	resp, err := http.Get(srv.URL + "/profiles?name=acme&limit=1")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ps []model.CompanyProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ps))
	require.Len(t, ps, 1)
	assert.Equal(t, "c", ps[0].ID)
}

func TestServe_ListProfilesEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/profiles")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw))
}

func TestServe_ListProfilesBadLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/profiles?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_GetProfile(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seed(t, st, "p-1", "Acme Inc.", time.Now().UTC())

	resp, err := http.Get(srv.URL + "/profiles/p-1")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p model.CompanyProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, "Acme Inc.", p.InputName)
}

func TestServe_GetProfileNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/profiles/missing")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_CreateProfile(t *testing.T) {
	srv, st, b := newTestServer(t)
	b.errs = []*profile.DomainError{{Domain: profile.DomainNews, Err: errors.New("all tiers failed")}}

	resp, err := http.Post(srv.URL+"/profiles", "application/json",
		strings.NewReader(`{"resolved_name":"Acme Inc.","ticker":"ACME"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body createResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Profile)
	assert.Equal(t, "built-1", body.Profile.ID)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "all tiers failed")

	require.Len(t, b.got, 1)
	assert.Equal(t, "Acme Inc.", b.got[0].InputName, "input name defaults to the resolved name")

	saved, err := st.GetProfile(context.Background(), "built-1")
	require.NoError(t, err)
	assert.Equal(t, "ACME", saved.Canonical.Ticker)
}

func TestServe_CreateProfileValidation(t *testing.T) {
	srv, _, b := newTestServer(t)

	for _, body := range []string{`not json`, `{"ticker":"ACME"}`} {
		resp, err := http.Post(srv.URL+"/profiles", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, b.got)
}

func TestServe_CORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/profiles", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
