package serpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

func TestNewsSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "google_news", q.Get("engine"))
		assert.Equal(t, `"Acme Inc."`, q.Get("q"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "10", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"news_results":[
			{"title":"Acme wins","link":"https://news.example/a","source":{"name":"Example News"},"snippet":"s1","date":"05/01/2024, 07:00 AM, +0000 UTC"},
			{"headline":"Acme loses","link":"https://news.example/b","source":"Wire","summary":"s2","published_date":"2024-05-02"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.NewsSearch(context.Background(), `"Acme Inc."`, 25)
	require.NoError(t, err)

	results := resp.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "Acme wins", results[0].Title)
	assert.Equal(t, "https://news.example/a", results[0].Link)
	assert.Equal(t, "Example News", results[0].Source)
	assert.Equal(t, "s1", results[0].Snippet)
	assert.Equal(t, "05/01/2024, 07:00 AM, +0000 UTC", results[0].Date)
	assert.Equal(t, "Acme wins", results[0].Raw["title"])

	assert.Equal(t, "Acme loses", results[1].Title)
	assert.Equal(t, "Wire", results[1].Source)
	assert.Equal(t, "s2", results[1].Snippet)
	assert.Equal(t, "2024-05-02", results[1].Date)
}

func TestNewsSearch_FallbackArrays(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		title string
	}{
		{"news", `{"news":[{"title":"from news"}]}`, "from news"},
		{"organic", `{"organic_results":[{"title":"from organic"}]}`, "from organic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
			require.NoError(t, err)
			require.Len(t, resp.Results(), 1)
			assert.Equal(t, tt.title, resp.Results()[0].Title)
		})
	}
}

func TestNewsSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Results())
}

func TestNewsSearch_EmptySearchIsNotAnError(t *testing.T) {
	for _, msg := range []string{
		"Google hasn't returned any results for this query.",
		"Google News hasn't returned any results for this query.",
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"search_metadata":{"status":"Success"},"error":"` + msg + `"}`))
		}))

		resp, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), `"Obscure Co"`, 5)
		srv.Close()
		require.NoError(t, err, msg)
		assert.Empty(t, resp.Results())
	}
}

func TestNewsSearch_ThrottledIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestNewsSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestNewsSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`unauthorized`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
	assert.False(t, resilience.IsTransient(err), "auth failures are not retryable")
}

func TestNewsSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).NewsSearch(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
