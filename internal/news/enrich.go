package news

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/extract"
	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/model"
)

// DefaultMaxFallback is the enrichment budget per aggregation.
const DefaultMaxFallback = 3

// PageFetcher retrieves raw page content. *fetcher.ContentFetcher
// implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.FetchOptions) fetcher.FetchResult
}

// Enricher fills missing headlines and summaries from the article page.
type Enricher struct {
	pages     PageFetcher
	extractor *extract.Extractor
	budget    int
	opts      fetcher.FetchOptions
	now       func() time.Time
}

// NewEnricher creates an Enricher. A negative budget disables enrichment;
// zero uses DefaultMaxFallback.
func NewEnricher(pages PageFetcher, budget int, opts fetcher.FetchOptions) *Enricher {
	if budget == 0 {
		budget = DefaultMaxFallback
	}
	return &Enricher{
		pages:     pages,
		extractor: extract.New(),
		budget:    budget,
		opts:      opts,
		now:       time.Now,
	}
}

// WithNow overrides the clock used for extraction and fetched timestamps.
func (e *Enricher) WithNow(now func() time.Time) *Enricher {
	e.now = now
	e.extractor.WithNow(now)
	return e
}

// Budget returns the number of pages Enrich may use.
func (e *Enricher) Budget() int { return e.budget }

// Enrich visits articles in order and, while budget remains, fetches the
// page of each article that lacks a headline or summary and has a URL.
// Only missing fields are filled. Budget is spent only when page content
// was obtained, so a failed fetch lets a later article try.
func (e *Enricher) Enrich(ctx context.Context, articles []model.RawArticle) []model.RawArticle {
	out := make([]model.RawArticle, len(articles))
	copy(out, articles)

	used := 0
	for i := range out {
		if used >= e.budget {
			break
		}
		a := &out[i]
		if (a.DisplayHeadline() != "" && a.DisplaySummary() != "") || strings.TrimSpace(a.URL) == "" {
			continue
		}
		md, ok := e.page(ctx, a.URL)
		if !ok {
			continue
		}
		used++
		if a.DisplayHeadline() == "" {
			a.Headline = md.Title
		}
		if a.DisplaySummary() == "" {
			a.Summary = summaryOf(md)
		}
	}
	if used > 0 {
		zap.L().Debug("news: enriched articles", zap.Int("count", used), zap.Int("budget", e.budget))
	}
	return out
}

// Complete runs an unbudgeted pass over normalized items that still lack a
// headline or summary. A missing summary is filled from the page
// description only. Each item whose page was read records the extraction
// confidence and snippet and has its fetched time refreshed.
func (e *Enricher) Complete(ctx context.Context, items []model.NewsItem) []model.NewsItem {
	out := make([]model.NewsItem, len(items))
	copy(out, items)

	for i := range out {
		it := &out[i]
		if !it.Incomplete() || strings.TrimSpace(it.SourceURL) == "" {
			continue
		}
		md, ok := e.page(ctx, it.SourceURL)
		if !ok {
			continue
		}
		if it.Headline == "" {
			it.Headline = md.Title
		}
		if it.Summary == "" {
			it.Summary = md.Description
		}
		conf := md.Confidence
		it.ExtractionConfidence = &conf
		it.EvidenceSnippet = md.EvidenceSnippet
		it.Fetched = e.now().UTC().Format(time.RFC3339)
	}
	return out
}

func (e *Enricher) page(ctx context.Context, url string) (model.PageMetadata, bool) {
	res := e.pages.Fetch(ctx, url, e.opts)
	if !res.OK() || res.Content == "" {
		if res.Err != nil {
			zap.L().Debug("news: enrichment fetch failed", zap.String("url", url), zap.Error(res.Err))
		}
		return model.PageMetadata{}, false
	}
	return e.extractor.Metadata(res.Content, url), true
}

func summaryOf(md model.PageMetadata) string {
	if md.Description != "" {
		return md.Description
	}
	return md.EvidenceSnippet
}
