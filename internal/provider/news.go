package provider

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/pkg/bing"
	"github.com/sells-group/evidence-cli/pkg/gdelt"
	"github.com/sells-group/evidence-cli/pkg/gnews"
	"github.com/sells-group/evidence-cli/pkg/serpapi"
)

// Tier names accepted in news.tiers.
const (
	TierSerpAPI = "serpapi"
	TierBing    = "bing"
	TierGDELT   = "gdelt"
	TierGNews   = "gnews"
)

// SerpAPINews is the primary aggregator tier.
type SerpAPINews struct {
	client serpapi.Client
	apiKey string
	pause  time.Duration
	sleep  func(ctx context.Context, d time.Duration)
}

// NewSerpAPINews creates the tier. pause is slept after each successful
// call to stay under the API's request rate.
func NewSerpAPINews(client serpapi.Client, apiKey string, pause time.Duration) *SerpAPINews {
	return &SerpAPINews{client: client, apiKey: apiKey, pause: pause, sleep: sleepCtx}
}

// Name implements NewsProvider.
func (p *SerpAPINews) Name() string { return TierSerpAPI }

// Search implements NewsProvider.
func (p *SerpAPINews) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, ErrMissingCredentials
	}
	if max <= 0 {
		return nil, nil
	}
	resp, err := p.client.NewsSearch(ctx, Phrase(company), max)
	if err != nil {
		return nil, err
	}

	results := resp.Results()
	out := make([]model.RawArticle, 0, min(len(results), max))
	for _, r := range clip(results, max) {
		out = append(out, model.RawArticle{
			Title:     r.Title,
			URL:       r.Link,
			Source:    r.Source,
			Snippet:   r.Snippet,
			Published: r.Date,
			Raw:       r.Raw,
		})
	}
	p.sleep(ctx, p.pause)
	return out, nil
}

// BingNews is the secondary search tier.
type BingNews struct {
	client bing.Client
	apiKey string
}

// NewBingNews creates the tier.
func NewBingNews(client bing.Client, apiKey string) *BingNews {
	return &BingNews{client: client, apiKey: apiKey}
}

// Name implements NewsProvider.
func (p *BingNews) Name() string { return TierBing }

// Search implements NewsProvider.
func (p *BingNews) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, ErrMissingCredentials
	}
	if max <= 0 {
		return nil, nil
	}
	resp, err := p.client.NewsSearch(ctx, Phrase(company), max)
	if err != nil {
		return nil, err
	}

	out := make([]model.RawArticle, 0, min(len(resp.Value), max))
	for _, a := range clip(resp.Value, max) {
		out = append(out, model.RawArticle{
			Title:     a.Name,
			URL:       a.URL,
			Source:    a.ProviderName(),
			Snippet:   a.Description,
			Published: a.DatePublished,
			Raw:       a.Raw,
		})
	}
	return out, nil
}

// GDELTNews is the open event-index tier. It needs no key.
type GDELTNews struct {
	client gdelt.Client
}

// NewGDELTNews creates the tier.
func NewGDELTNews(client gdelt.Client) *GDELTNews {
	return &GDELTNews{client: client}
}

// Name implements NewsProvider.
func (p *GDELTNews) Name() string { return TierGDELT }

// Search implements NewsProvider.
func (p *GDELTNews) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	if max <= 0 {
		return nil, nil
	}
	resp, err := p.client.ArticleList(ctx, Phrase(company), max)
	if err != nil {
		return nil, err
	}

	out := make([]model.RawArticle, 0, min(len(resp.Articles), max))
	for _, a := range clip(resp.Articles, max) {
		out = append(out, model.RawArticle{
			Title:     a.Title,
			URL:       a.URL,
			Source:    a.Domain,
			Snippet:   a.Snippet(),
			Published: a.Published(),
			Raw:       a.Raw,
		})
	}
	return out, nil
}

// GNewsRSS reads Google News RSS. It is off unless listed in news.tiers.
type GNewsRSS struct {
	client gnews.Client
}

// NewGNewsRSS creates the tier.
func NewGNewsRSS(client gnews.Client) *GNewsRSS {
	return &GNewsRSS{client: client}
}

// Name implements NewsProvider.
func (p *GNewsRSS) Name() string { return TierGNews }

// Search implements NewsProvider.
func (p *GNewsRSS) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	if max <= 0 {
		return nil, nil
	}
	items, err := p.client.Search(ctx, Phrase(company), max)
	if err != nil {
		return nil, err
	}

	out := make([]model.RawArticle, 0, min(len(items), max))
	for _, it := range clip(items, max) {
		out = append(out, model.RawArticle{
			Title:     it.Title,
			URL:       it.Link,
			Source:    it.Source,
			Snippet:   it.Description,
			Published: it.Published,
			Raw: map[string]any{
				"title":     it.Title,
				"link":      it.Link,
				"source":    it.Source,
				"guid":      it.GUID,
				"published": it.Published,
			},
		})
	}
	return out, nil
}

func clip[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
