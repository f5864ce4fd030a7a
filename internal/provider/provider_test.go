package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/config"
	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/provider/mocks"
	"github.com/sells-group/evidence-cli/internal/resilience"
)

func testBreakers() *resilience.ServiceBreakers {
	return resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
}

func TestGuardNews_OpensAfterFailures(t *testing.T) {
	inner := mocks.NewMockNewsProvider(t, "bing")
	inner.On("Search", mock.Anything, "Acme", 3).Return(nil, errors.New("boom")).Times(2)

	breakers := testBreakers()
	g := GuardNews(inner, breakers)

	for range 2 {
		_, err := g.Search(context.Background(), "Acme", 3)
		require.Error(t, err)
	}
	_, err := g.Search(context.Background(), "Acme", 3)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.CircuitOpen, breakers.States()["news:bing"])
}

func TestGuardNews_SkipDoesNotTrip(t *testing.T) {
	inner := mocks.NewMockNewsProvider(t, "serpapi")
	inner.On("Search", mock.Anything, "Acme", 3).Return(nil, ErrMissingCredentials).Times(5)

	breakers := testBreakers()
	g := GuardNews(inner, breakers)
	for range 5 {
		_, err := g.Search(context.Background(), "Acme", 3)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
	assert.Equal(t, resilience.CircuitClosed, breakers.States()["news:serpapi"])
}

func TestGuardNews_PassesResults(t *testing.T) {
	inner := mocks.NewMockNewsProvider(t, "gdelt")
	inner.On("Search", mock.Anything, "Acme", 2).Return([]model.RawArticle{{Title: "a"}}, nil).Once()

	g := GuardNews(inner, testBreakers())
	out, err := g.Search(context.Background(), "Acme", 2)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "gdelt", g.Name())
}

func TestGuardFilings_SkipDoesNotTrip(t *testing.T) {
	inner := &mocks.MockFilingProvider{}
	inner.On("Filings", mock.Anything, "", "", "10-K", 2).Return(nil, ErrNoIdentifier).Times(3)

	breakers := testBreakers()
	g := GuardFilings(inner, breakers)
	for range 3 {
		_, err := g.Filings(context.Background(), "", "", "10-K", 2)
		assert.ErrorIs(t, err, ErrNoIdentifier)
	}
	assert.Equal(t, resilience.CircuitClosed, breakers.States()["filings"])
	inner.AssertExpectations(t)
}

func TestGuardTrials(t *testing.T) {
	inner := &mocks.MockTrialProvider{}
	inner.On("Search", mock.Anything, "Acme", 5).Return([]model.Study{{NCTID: "NCT1"}}, nil).Once()

	out, err := GuardTrials(inner, testBreakers()).Search(context.Background(), "Acme", 5)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	inner.AssertExpectations(t)
}

func TestNewsTiers_Order(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.Tiers = []string{"gdelt", "serpapi", "gnews", "bing"}

	tiers, err := NewsTiers(cfg, testBreakers(), nil)
	require.NoError(t, err)
	names := make([]string, len(tiers))
	for i, p := range tiers {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"gdelt", "serpapi", "gnews", "bing"}, names)
}

func TestNewsTiers_Unknown(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.Tiers = []string{"altavista"}

	_, err := NewsTiers(cfg, testBreakers(), nil)
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg := &config.Config{}
	cfg.News.Tiers = []string{"serpapi", "bing", "gdelt"}

	set, err := Build(cfg, fetcher.DefaultAdaptiveLimiters())
	require.NoError(t, err)
	assert.Len(t, set.News, 3)
	assert.NotNil(t, set.Trials)
	assert.NotNil(t, set.Filings)
	assert.NotNil(t, set.EDGAR)
}

func TestBuild_RegistryClientsShareLimiters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.EDGAR.BaseURL = srv.URL
	cfg.EDGAR.DataBaseURL = srv.URL
	cfg.Trials.BaseURL = srv.URL
	lim := fetcher.NewAdaptiveLimiter(10, 10)

	set, err := Build(cfg, map[string]*fetcher.AdaptiveLimiter{u.Host: lim})
	require.NoError(t, err)

	_, err = set.Filings.Filings(context.Background(), "", "42", "10-K", 2)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.InDelta(t, 5.0, float64(lim.Limit()), 0.001)

	_, err = set.Trials.Search(context.Background(), "Acme", 5)
	require.Error(t, err)
	assert.InDelta(t, 2.5, float64(lim.Limit()), 0.001)
}
