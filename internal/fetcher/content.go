package fetcher

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/resilience"
)

// ErrFetchFailed is wrapped by FetchResult.Err when every attempt failed.
var ErrFetchFailed = eris.New("fetcher: fetch failed")

// FetchOptions controls a single ContentFetcher.Fetch call.
type FetchOptions struct {
	// UseCache consults the archive before the network.
	UseCache bool
	// MaxRetries is the total number of attempts. Default: 3.
	MaxRetries int
	// Backoff is the constant sleep between attempts. Default: 2s.
	Backoff time.Duration
}

// DefaultFetchOptions returns the default options: archive on, 3 attempts,
// 2s between attempts.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{UseCache: true, MaxRetries: 3, Backoff: 2 * time.Second}
}

// FetchResult describes the outcome of a fetch. Err is set on failure and
// Content is empty.
type FetchResult struct {
	URL        string
	Content    string
	ArchiveKey string
	Location   string
	FetchedAt  time.Time
	FromCache  bool
	Attempts   int
	Err        error
}

// OK reports whether content was obtained.
func (r FetchResult) OK() bool { return r.Err == nil }

// ContentFetcher retrieves raw content for a URL through the archive.
type ContentFetcher struct {
	getter  Getter
	archive Archive
	now     func() time.Time
}

// NewContentFetcher creates a ContentFetcher.
func NewContentFetcher(getter Getter, archive Archive) *ContentFetcher {
	return &ContentFetcher{getter: getter, archive: archive, now: time.Now}
}

// WithNow overrides the clock used for FetchedAt.
func (f *ContentFetcher) WithNow(now func() time.Time) *ContentFetcher {
	f.now = now
	return f
}

// Fetch returns the raw content for url. An archived copy is returned
// without network access when opts.UseCache is set. Otherwise the URL is
// attempted up to opts.MaxRetries times and a successful body is archived
// before returning. Fetch never panics on network failure; failures come
// back in FetchResult.Err.
func (f *ContentFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) FetchResult {
	key := ArchiveKey(url)
	res := FetchResult{URL: url, ArchiveKey: key, Location: f.archive.Location(key)}
	log := zap.L().With(zap.String("url", url), zap.String("archive_key", key))

	if url == "" {
		res.Err = eris.Wrap(ErrFetchFailed, "empty url")
		return res
	}

	if opts.UseCache {
		data, ok, err := f.archive.Get(ctx, key)
		if err != nil {
			log.Warn("fetcher: archive read failed", zap.Error(err))
		} else if ok {
			res.Content = string(data)
			res.FromCache = true
			res.FetchedAt = f.now().UTC()
			return res
		}
	}

	retry := resilience.FromFetchConfig(opts.MaxRetries, opts.Backoff.Seconds())
	retry.OnRetry = resilience.RetryLogger("fetcher", url)

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		res.Attempts++
		return f.getter.Get(ctx, url)
	})
	if err != nil {
		log.Warn("fetcher: giving up", zap.Int("attempts", res.Attempts), zap.Error(err))
		res.Err = eris.Wrapf(ErrFetchFailed, "failed after %d attempts: %v", res.Attempts, err)
		return res
	}

	if err := f.archive.PutIfAbsent(ctx, key, body); err != nil {
		log.Warn("fetcher: archive write failed", zap.Error(err))
	}
	res.Content = string(body)
	res.FetchedAt = f.now().UTC()
	return res
}
