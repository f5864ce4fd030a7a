// Package gnews reads the Google News RSS search feed.
package gnews

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

const defaultBaseURL = "https://news.google.com"

// Client searches the Google News RSS feed.
type Client interface {
	Search(ctx context.Context, query string, max int) ([]Item, error)
}

// Item is one feed entry.
type Item struct {
	Title       string
	Link        string
	Source      string
	Description string
	Published   string
	GUID        string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default feed base URL.
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

// NewClient creates a Google News RSS client.
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

func (c *httpClient) Search(ctx context.Context, query string, max int) ([]Item, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	parser := gofeed.NewParser()
	parser.Client = c.http

	feed, err := parser.ParseURLWithContext(c.baseURL+"/rss/search?"+params.Encode(), ctx)
	if err != nil {
		wrapped := eris.Wrap(err, "gnews: parse feed")
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, resilience.StatusError(wrapped, httpErr.StatusCode)
		}
		return nil, wrapped
	}

	count := min(len(feed.Items), max)
	items := make([]Item, 0, count)
	for _, fi := range feed.Items[:count] {
		title, source := splitTitle(fi.Title)
		item := Item{
			Title:       title,
			Link:        fi.Link,
			Source:      source,
			Description: fi.Description,
			GUID:        fi.GUID,
		}
		if item.Description == "" {
			item.Description = fi.Content
		}
		switch {
		case fi.PublishedParsed != nil:
			item.Published = fi.PublishedParsed.UTC().Format(time.RFC3339)
		case fi.UpdatedParsed != nil:
			item.Published = fi.UpdatedParsed.UTC().Format(time.RFC3339)
		default:
			item.Published = fi.Published
		}
		items = append(items, item)
	}
	return items, nil
}

// splitTitle splits Google News' "Headline - Publisher" titles.
func splitTitle(t string) (title, source string) {
	i := strings.LastIndex(t, " - ")
	if i <= 0 {
		return t, ""
	}
	return strings.TrimSpace(t[:i]), strings.TrimSpace(t[i+3:])
}
