// Package news collects recent news for a company from an ordered list of
// provider tiers, enriches incomplete articles and caches the result.
package news

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/cache"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/provider"
)

// DefaultMaxResults is the number of items requested when the caller does
// not say.
const DefaultMaxResults = 8

// TierOutcome records what one tier did during a Fetch.
type TierOutcome struct {
	Provider string
	Quota    int
	Returned int
	Skipped  bool
	Err      error
}

// Result is the outcome of one aggregation.
type Result struct {
	Items     []model.NewsItem
	Tiers     []TierOutcome
	FromCache bool
}

// Err joins the failures of tiers that ran and failed. Skipped tiers are
// not failures.
func (r *Result) Err() error {
	var errs []error
	for _, t := range r.Tiers {
		if t.Err != nil && !t.Skipped {
			errs = append(errs, eris.Wrapf(t.Err, "news: tier %s", t.Provider))
		}
	}
	return errors.Join(errs...)
}

// FetchOption adjusts a single Fetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	useCache bool
}

// WithoutCache bypasses both the cache read and the cache write.
func WithoutCache() FetchOption {
	return func(o *fetchOptions) { o.useCache = false }
}

// Aggregator runs the tier fallback for one company at a time.
type Aggregator struct {
	tiers    []provider.NewsProvider
	cache    *cache.Cache
	enricher *Enricher
	now      func() time.Time
}

// NewAggregator creates an Aggregator. tiers are tried in order. cache and
// enricher may be nil.
func NewAggregator(tiers []provider.NewsProvider, c *cache.Cache, enricher *Enricher) *Aggregator {
	return &Aggregator{tiers: tiers, cache: c, enricher: enricher, now: time.Now}
}

// WithNow overrides the clock used for the fetched timestamp.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Tiers returns the tier names in order.
func (a *Aggregator) Tiers() []string {
	names := make([]string, len(a.tiers))
	for i, t := range a.tiers {
		names[i] = t.Name()
	}
	return names
}

// Fetch returns up to max news items for company. A cache hit is returned
// verbatim. Otherwise each tier is asked for the remaining quota until max
// articles are collected, the combined list is enriched, normalized and
// truncated. A non-empty result is written to the cache.
//
// Tier failures are recorded in Result.Tiers and never fail the call. The
// only error is a cancelled context.
func (a *Aggregator) Fetch(ctx context.Context, company string, max int, opts ...FetchOption) (*Result, error) {
	o := fetchOptions{useCache: true}
	for _, opt := range opts {
		opt(&o)
	}
	useCache := o.useCache && a.cache != nil
	key := cache.Key(company)
	log := zap.L().With(zap.String("company", company))

	if useCache {
		if items, err := a.cache.Lookup(ctx, company); err == nil {
			log.Debug("news: cache hit", zap.Int("items", len(items)))
			return &Result{Items: items, FromCache: true}, nil
		}
	}

	res := &Result{Items: []model.NewsItem{}}
	if max <= 0 {
		return res, nil
	}

	var collected []model.RawArticle
	for _, tier := range a.tiers {
		if len(collected) >= max {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "news: fetch")
		}

		quota := max - len(collected)
		out := TierOutcome{Provider: tier.Name(), Quota: quota}
		articles, err := tier.Search(ctx, company, quota)
		switch {
		case provider.IsSkip(err):
			out.Skipped = true
			out.Err = err
			log.Debug("news: tier skipped", zap.String("tier", out.Provider), zap.Error(err))
		case err != nil:
			out.Err = err
			log.Warn("news: tier failed", zap.String("tier", out.Provider), zap.Error(err))
		default:
			if len(articles) > quota {
				articles = articles[:quota]
			}
			out.Returned = len(articles)
			collected = append(collected, articles...)
		}
		res.Tiers = append(res.Tiers, out)
	}

	if a.enricher != nil {
		collected = a.enricher.Enrich(ctx, collected)
	}

	fetched := a.now().UTC().Format(time.RFC3339)
	for _, art := range collected {
		res.Items = append(res.Items, Normalize(art, fetched))
	}
	if len(res.Items) > max {
		res.Items = res.Items[:max]
	}

	if useCache && len(res.Items) > 0 {
		a.cache.Put(ctx, key, res.Items)
	}
	log.Info("news: aggregated",
		zap.Int("items", len(res.Items)),
		zap.Int("tiers_run", len(res.Tiers)),
	)
	return res, nil
}

// Normalize projects a raw article onto the news item shape.
func Normalize(a model.RawArticle, fetched string) model.NewsItem {
	prov := a.Raw
	if prov == nil {
		prov = map[string]any{}
	}
	return model.NewsItem{
		Headline:   a.DisplayHeadline(),
		Summary:    a.DisplaySummary(),
		SourceURL:  a.URL,
		Published:  NormalizeDate(a.Published),
		SourceName: a.Source,
		Fetched:    fetched,
		Provenance: prov,
	}
}
