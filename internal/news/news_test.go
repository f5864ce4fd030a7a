package news

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/cache"
	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/provider"
	"github.com/sells-group/evidence-cli/internal/provider/mocks"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakePages struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakePages) Fetch(_ context.Context, url string, _ fetcher.FetchOptions) fetcher.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return fetcher.FetchResult{URL: url, Err: fetcher.ErrFetchFailed}
	}
	return fetcher.FetchResult{URL: url, Content: body}
}

func page(title, desc string) string {
	return fmt.Sprintf(`<html><head><title>%s</title><meta name="description" content="%s"></head></html>`, title, desc)
}

func articles(prefix string, n int) []model.RawArticle {
	out := make([]model.RawArticle, n)
	for i := range out {
		out[i] = model.RawArticle{
			Title:   fmt.Sprintf("%s %d", prefix, i),
			URL:     fmt.Sprintf("https://%s/%d", prefix, i),
			Snippet: "s",
			Source:  prefix,
		}
	}
	return out
}

func fileCache(t *testing.T, now func() time.Time) *cache.Cache {
	t.Helper()
	b, err := cache.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return cache.New(b, 24*time.Hour).WithNow(now)
}

func TestAggregator_QuotaDiscipline(t *testing.T) {
	ctx := context.Background()
	serp := mocks.NewMockNewsProvider(t, "serpapi")
	bing := mocks.NewMockNewsProvider(t, "bing")
	gdelt := mocks.NewMockNewsProvider(t, "gdelt")

	serp.On("Search", mock.Anything, "Acme", 8).Return(articles("serp", 3), nil).Once()
	bing.On("Search", mock.Anything, "Acme", 5).Return(articles("bing", 5), nil).Once()

	agg := NewAggregator([]provider.NewsProvider{serp, bing, gdelt}, nil, nil).WithNow(func() time.Time { return t0 })
	res, err := agg.Fetch(ctx, "Acme", 8)
	require.NoError(t, err)

	assert.Len(t, res.Items, 8)
	assert.False(t, res.FromCache)
	require.Len(t, res.Tiers, 2)
	assert.Equal(t, TierOutcome{Provider: "serpapi", Quota: 8, Returned: 3}, res.Tiers[0])
	assert.Equal(t, TierOutcome{Provider: "bing", Quota: 5, Returned: 5}, res.Tiers[1])
	gdelt.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, "serp 0", res.Items[0].Headline)
	assert.Equal(t, "bing 4", res.Items[7].Headline)
	assert.Equal(t, "2024-05-01T12:00:00Z", res.Items[0].Fetched)
}

func TestAggregator_SkippedAndFailedTiers(t *testing.T) {
	serp := mocks.NewMockNewsProvider(t, "serpapi")
	bing := mocks.NewMockNewsProvider(t, "bing")
	gdelt := mocks.NewMockNewsProvider(t, "gdelt")

	serp.On("Search", mock.Anything, "Acme", 4).Return(nil, provider.ErrMissingCredentials).Once()
	bing.On("Search", mock.Anything, "Acme", 4).Return(nil, errors.New("boom")).Once()
	gdelt.On("Search", mock.Anything, "Acme", 4).Return(articles("gdelt", 2), nil).Once()

	res, err := NewAggregator([]provider.NewsProvider{serp, bing, gdelt}, nil, nil).Fetch(context.Background(), "Acme", 4)
	require.NoError(t, err)

	assert.Len(t, res.Items, 2)
	require.Len(t, res.Tiers, 3)
	assert.True(t, res.Tiers[0].Skipped)
	assert.False(t, res.Tiers[1].Skipped)
	assert.EqualError(t, res.Tiers[1].Err, "boom")

	joined := res.Err()
	require.Error(t, joined)
	assert.Contains(t, joined.Error(), "news: tier bing")
	assert.NotContains(t, joined.Error(), "serpapi")
}

func TestAggregator_ClipsOverReturningTier(t *testing.T) {
	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Acme", 3).Return(articles("serp", 10), nil).Once()

	res, err := NewAggregator([]provider.NewsProvider{serp}, nil, nil).Fetch(context.Background(), "Acme", 3)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, 3, res.Tiers[0].Returned)
}

func TestAggregator_CrossTierDuplicatesKept(t *testing.T) {
	dup := model.RawArticle{Title: "Same story", URL: "https://same/1", Snippet: "x"}
	serp := mocks.NewMockNewsProvider(t, "serpapi")
	bing := mocks.NewMockNewsProvider(t, "bing")
	serp.On("Search", mock.Anything, "Acme", 3).Return([]model.RawArticle{dup}, nil).Once()
	bing.On("Search", mock.Anything, "Acme", 2).Return([]model.RawArticle{dup}, nil).Once()

	res, err := NewAggregator([]provider.NewsProvider{serp, bing}, nil, nil).Fetch(context.Background(), "Acme", 3)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, res.Items[0].SourceURL, res.Items[1].SourceURL)
}

func TestAggregator_CacheHitSkipsProviders(t *testing.T) {
	ctx := context.Background()
	now := t0
	c := fileCache(t, func() time.Time { return now })

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Genentech", 5).Return(articles("serp", 5), nil).Once()

	agg := NewAggregator([]provider.NewsProvider{serp}, c, nil).WithNow(func() time.Time { return now })
	first, err := agg.Fetch(ctx, "Genentech", 5)
	require.NoError(t, err)

	now = t0.Add(23 * time.Hour)
	second, err := agg.Fetch(ctx, "Genentech", 5)
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Items, second.Items)
	assert.Empty(t, second.Tiers)
	serp.AssertNumberOfCalls(t, "Search", 1)
}

func TestAggregator_CacheExpiryRefetches(t *testing.T) {
	ctx := context.Background()
	now := t0
	c := fileCache(t, func() time.Time { return now })

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Genentech", 5).Return(articles("serp", 5), nil).Twice()

	agg := NewAggregator([]provider.NewsProvider{serp}, c, nil).WithNow(func() time.Time { return now })
	_, err := agg.Fetch(ctx, "Genentech", 5)
	require.NoError(t, err)

	now = t0.Add(24*time.Hour + time.Second)
	res, err := agg.Fetch(ctx, "Genentech", 5)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	serp.AssertNumberOfCalls(t, "Search", 2)
}

func TestAggregator_WithoutCache(t *testing.T) {
	ctx := context.Background()
	c := fileCache(t, func() time.Time { return t0 })
	c.Put(ctx, cache.Key("Acme"), []model.NewsItem{{Headline: "stale"}})

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Acme", 2).Return(articles("serp", 2), nil).Once()

	res, err := NewAggregator([]provider.NewsProvider{serp}, c, nil).Fetch(ctx, "Acme", 2, WithoutCache())
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "serp 0", res.Items[0].Headline)

	cached, err := c.Get(ctx, cache.Key("Acme"))
	require.NoError(t, err)
	assert.Equal(t, "stale", cached[0].Headline, "cache untouched")
}

func TestAggregator_EmptyResultIsNotServedFromCache(t *testing.T) {
	ctx := context.Background()
	c := fileCache(t, func() time.Time { return t0 })

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Nobody", 3).Return(nil, errors.New("down")).Twice()

	agg := NewAggregator([]provider.NewsProvider{serp}, c, nil)
	for range 2 {
		res, err := agg.Fetch(ctx, "Nobody", 3)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
	}
}

func TestAggregator_EmptyResultIsNotWritten(t *testing.T) {
	ctx := context.Background()
	b, err := cache.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	c := cache.New(b, 24*time.Hour).WithNow(func() time.Time { return t0 })

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Nobody", 3).Return(nil, nil).Once()

	res, err := NewAggregator([]provider.NewsProvider{serp}, c, nil).Fetch(ctx, "Nobody", 3)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = b.Load(ctx, cache.Key("Nobody"))
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestAggregator_ServesLegacyCacheFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)
	c := cache.New(b, 24*time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Acme_Inc..json"),
		[]byte(`[{"headline":"legacy","source_url":"https://x"}]`), 0o644))

	serp := mocks.NewMockNewsProvider(t, "serpapi")

	res, err := NewAggregator([]provider.NewsProvider{serp}, c, nil).Fetch(ctx, "Acme Inc.", 3)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "legacy", res.Items[0].Headline)
	serp.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_EnrichesBeforeNormalizeAndCaches(t *testing.T) {
	ctx := context.Background()
	c := fileCache(t, func() time.Time { return t0 })
	pages := &fakePages{pages: map[string]string{"https://n/1": page("From page", "Page description")}}

	serp := mocks.NewMockNewsProvider(t, "serpapi")
	serp.On("Search", mock.Anything, "Acme", 2).Return([]model.RawArticle{
		{URL: "https://n/1", Source: "Wire", Published: "2024-04-30 08:15:00", Raw: map[string]any{"id": "1"}},
		{Title: "Complete", Snippet: "already", URL: "https://n/2"},
	}, nil).Once()

	enr := NewEnricher(pages, 3, fetcher.DefaultFetchOptions()).WithNow(func() time.Time { return t0 })
	res, err := NewAggregator([]provider.NewsProvider{serp}, c, enr).WithNow(func() time.Time { return t0 }).Fetch(ctx, "Acme", 2)
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, model.NewsItem{
		Headline:   "From page",
		Summary:    "Page description",
		SourceURL:  "https://n/1",
		Published:  "2024-04-30T08:15:00Z",
		SourceName: "Wire",
		Fetched:    "2024-05-01T12:00:00Z",
		Provenance: map[string]any{"id": "1"},
	}, res.Items[0])
	assert.Equal(t, map[string]any{}, res.Items[1].Provenance)
	assert.Equal(t, []string{"https://n/1"}, pages.calls)

	cached, err := c.Get(ctx, cache.Key("Acme"))
	require.NoError(t, err)
	assert.Equal(t, "From page", cached[0].Headline)
}

func TestAggregator_ZeroMax(t *testing.T) {
	serp := mocks.NewMockNewsProvider(t, "serpapi")
	res, err := NewAggregator([]provider.NewsProvider{serp}, nil, nil).Fetch(context.Background(), "Acme", 0)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	serp.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	serp := mocks.NewMockNewsProvider(t, "serpapi")

	_, err := NewAggregator([]provider.NewsProvider{serp}, nil, nil).Fetch(ctx, "Acme", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregator_TierNames(t *testing.T) {
	a := mocks.NewMockNewsProvider(t, "serpapi")
	b := mocks.NewMockNewsProvider(t, "gdelt")
	assert.Equal(t, []string{"serpapi", "gdelt"}, NewAggregator([]provider.NewsProvider{a, b}, nil, nil).Tiers())
}
