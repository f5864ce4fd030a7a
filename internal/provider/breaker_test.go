package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/pkg/edgar"
	"github.com/sells-group/evidence-cli/pkg/serpapi"
)

// runtimeBreakers mirrors the breakers Build wires from config.
func runtimeBreakers() *resilience.ServiceBreakers {
	return resilience.NewServiceBreakers(resilience.FromCircuitConfig(2, 3600))
}

func TestGuardFilings_BadCompaniesDoNotBlockLaterOnes(t *testing.T) {
	srv, _ := edgarServer(t)
	breakers := runtimeBreakers()
	p := GuardFilings(NewEDGARFilings(edgar.NewClient("ua", edgar.WithBaseURL(srv.URL), edgar.WithDataBaseURL(srv.URL))), breakers)
	ctx := context.Background()

	for _, ticker := range []string{"ROG.SW", "NOVN.SW", "SAN.PA"} {
		_, err := p.Filings(ctx, ticker, "", "10-K", 2)
		require.ErrorIs(t, err, edgar.ErrTickerNotFound, ticker)
	}
	// Unknown CIK: EDGAR answers 404.
	_, err := p.Filings(ctx, "", "99", "10-K", 2)
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))

	out, err := p.Filings(ctx, "", "42", "10-K", 2)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, resilience.CircuitClosed, breakers.States()["filings"])
}

func TestGuardFilings_OutageOpensCircuit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breakers := runtimeBreakers()
	p := GuardFilings(NewEDGARFilings(edgar.NewClient("ua", edgar.WithBaseURL(srv.URL), edgar.WithDataBaseURL(srv.URL))), breakers)

	for range 2 {
		_, err := p.Filings(context.Background(), "", "42", "10-K", 2)
		require.Error(t, err)
	}
	_, err := p.Filings(context.Background(), "", "42", "10-K", 2)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGuardNews_EmptySearchesDoNotBlockLaterCompanies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == `"Obscure Co"` {
			_, _ = w.Write([]byte(`{"error":"Google hasn't returned any results for this query."}`))
			return
		}
		_, _ = w.Write([]byte(`{"news_results":[{"title":"Acme wins","link":"https://n/1"}]}`))
	}))
	defer srv.Close()

	breakers := runtimeBreakers()
	inner := NewSerpAPINews(serpapi.NewClient("k", serpapi.WithBaseURL(srv.URL)), "k", 0)
	p := GuardNews(inner, breakers)

	for range 5 {
		out, err := p.Search(context.Background(), "Obscure Co", 5)
		require.NoError(t, err)
		assert.Empty(t, out)
	}

	out, err := p.Search(context.Background(), "Acme", 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme wins", out[0].Title)
}
