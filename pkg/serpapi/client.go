// Package serpapi is a client for the SerpApi Google News engine.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

const defaultBaseURL = "https://serpapi.com"

// MaxNum is the largest page size the engine honors.
const MaxNum = 10

// Client searches Google News through SerpApi.
type Client interface {
	NewsSearch(ctx context.Context, query string, num int) (*NewsResponse, error)
}

// NewsResponse holds whichever result array the engine returned.
type NewsResponse struct {
	NewsResults    []Result `json:"news_results"`
	News           []Result `json:"news"`
	OrganicResults []Result `json:"organic_results"`
	Error          string   `json:"error"`
}

// Results returns the first non-empty result array, in the order
// news_results, news, organic_results.
func (r *NewsResponse) Results() []Result {
	switch {
	case len(r.NewsResults) > 0:
		return r.NewsResults
	case len(r.News) > 0:
		return r.News
	default:
		return r.OrganicResults
	}
}

// Result is one news hit. Raw keeps the original object.
type Result struct {
	Title   string         `json:"-"`
	Link    string         `json:"-"`
	Source  string         `json:"-"`
	Snippet string         `json:"-"`
	Date    string         `json:"-"`
	Raw     map[string]any `json:"-"`
}

// UnmarshalJSON decodes a result whose fields vary between engines. The
// source may be a string or an object with a name.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Raw = raw
	r.Title = firstString(raw, "title", "headline")
	r.Link = firstString(raw, "link")
	r.Snippet = firstString(raw, "snippet", "summary", "description")
	r.Date = firstString(raw, "date", "published_date", "time")

	switch src := raw["source"].(type) {
	case string:
		r.Source = src
		if r.Link == "" {
			r.Link = src
		}
	case map[string]any:
		if name, ok := src["name"].(string); ok {
			r.Source = name
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a SerpApi client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NewsSearch(ctx context.Context, query string, num int) (*NewsResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(min(num, MaxNum)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "serpapi: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "serpapi: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	var result NewsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}
	if result.Error != "" {
		if noResults(result.Error) {
			return &NewsResponse{}, nil
		}
		return nil, eris.Errorf("serpapi: api error: %s", result.Error)
	}

	return &result, nil
}

// noResults reports whether an API error message only says the search came
// back empty. SerpApi answers such queries with 200 and an error field.
func noResults(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "hasn't returned any results")
}
