// Package bing is a client for the Bing News Search v7 API.
package bing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

const defaultBaseURL = "https://api.bing.microsoft.com"

// MaxCount is the largest page size the API accepts.
const MaxCount = 50

// Client searches Bing News.
type Client interface {
	NewsSearch(ctx context.Context, query string, count int) (*NewsResponse, error)
}

// NewsResponse is the response from /v7.0/news/search.
type NewsResponse struct {
	Value []Article `json:"value"`
}

// Article is one news hit. Raw keeps the original object.
type Article struct {
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Description   string         `json:"description"`
	DatePublished string         `json:"datePublished"`
	Provider      []Provider     `json:"provider"`
	Raw           map[string]any `json:"-"`
}

// Provider is the publisher of an article.
type Provider struct {
	Name string `json:"name"`
}

// ProviderName returns the first provider's name, or "".
func (a Article) ProviderName() string {
	if len(a.Provider) == 0 {
		return ""
	}
	return a.Provider[0].Name
}

// UnmarshalJSON decodes the typed fields and keeps the raw object.
func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Article(p)
	a.Raw = raw
	return nil
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

// NewClient creates a Bing News client.
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

func (c *httpClient) NewsSearch(ctx context.Context, query string, count int) (*NewsResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(min(count, MaxCount)))
	params.Set("sortBy", "Date")
	params.Set("mkt", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v7.0/news/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "bing: create request")
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "bing: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "bing: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(eris.Errorf("bing: unexpected status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	var result NewsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "bing: unmarshal response")
	}

	return &result, nil
}
