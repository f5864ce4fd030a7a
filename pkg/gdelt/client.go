// Package gdelt is a client for the GDELT 2.0 DOC API article list.
package gdelt

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

const defaultBaseURL = "https://api.gdeltproject.org"

// seenDateLayouts are GDELT's compact timestamp, e.g. 20240501T101500Z in
// newer responses or 20240501101500 in older ones.
var seenDateLayouts = []string{"20060102T150405Z", "20060102150405"}

// Client queries the GDELT DOC API.
type Client interface {
	ArticleList(ctx context.Context, query string, maxRecords int) (*ArticleListResponse, error)
}

// ArticleListResponse is the response for mode=artlist.
type ArticleListResponse struct {
	Articles []Article `json:"articles"`
}

// Article is one article mention. Raw keeps the original object.
type Article struct {
	URL             string         `json:"url"`
	Title           string         `json:"title"`
	SeenDate        string         `json:"seendate"`
	SeenDescription string         `json:"seendescription"`
	Domain          string         `json:"domain"`
	Language        string         `json:"language"`
	Raw             map[string]any `json:"-"`
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

// Snippet returns the seen description, falling back to the title.
func (a Article) Snippet() string {
	if a.SeenDescription != "" {
		return a.SeenDescription
	}
	return a.Title
}

// Published converts SeenDate to ISO-8601. Unparseable values are returned
// unchanged and empty stays empty.
func (a Article) Published() string {
	if a.SeenDate == "" {
		return ""
	}
	for _, layout := range seenDateLayouts {
		if t, err := time.Parse(layout, a.SeenDate); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return a.SeenDate
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
	baseURL string
	http    *http.Client
}

// NewClient creates a GDELT client. The API needs no key.
func NewClient(opts ...Option) Client {
	c := &httpClient{
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

func (c *httpClient) ArticleList(ctx context.Context, query string, maxRecords int) (*ArticleListResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "artlist")
	params.Set("maxrecords", strconv.Itoa(maxRecords))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/doc/doc?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "gdelt: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "gdelt: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.TransportError(ctx, eris.Wrap(err, "gdelt: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError(eris.Errorf("gdelt: unexpected status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
	}

	// GDELT answers an empty result set with an empty body.
	if len(body) == 0 {
		return &ArticleListResponse{}, nil
	}

	var result ArticleListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "gdelt: unmarshal response")
	}

	return &result, nil
}
