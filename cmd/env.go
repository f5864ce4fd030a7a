package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/cache"
	"github.com/sells-group/evidence-cli/internal/config"
	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/financial"
	"github.com/sells-group/evidence-cli/internal/identity"
	"github.com/sells-group/evidence-cli/internal/news"
	"github.com/sells-group/evidence-cli/internal/profile"
	"github.com/sells-group/evidence-cli/internal/provider"
	"github.com/sells-group/evidence-cli/internal/store"
	"github.com/sells-group/evidence-cli/internal/trials"
)

// pipelineEnv holds every initialized component the commands need.
type pipelineEnv struct {
	Store      store.Store // nil unless requested
	Cache      *cache.Cache
	Providers  *provider.Set
	Content    *fetcher.ContentFetcher
	Enricher   *news.Enricher
	Aggregator *news.Aggregator
	Trials     *trials.Collector
	Financial  *financial.Collector
	Resolver   *identity.Resolver
	Builder    *profile.Builder
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Cache != nil {
		if err := pe.Cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// envOptions selects the optional parts of the environment.
type envOptions struct {
	mode      string
	withStore bool
	noCache   bool
}

// initPipeline wires config into components. Callers should defer
// env.Close().
func initPipeline(ctx context.Context, o envOptions) (*pipelineEnv, error) {
	if err := cfg.Validate(o.mode); err != nil {
		return nil, err
	}
	pc := cfg.Pipeline()
	env := &pipelineEnv{}

	archive, err := initArchive(ctx, cfg.Fetch)
	if err != nil {
		return nil, err
	}
	limiters := fetcher.DefaultAdaptiveLimiters()
	getter := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: pc.UserAgent,
		Timeout:   pc.FetchTimeout,
		Adaptive:  limiters,
	})
	env.Content = fetcher.NewContentFetcher(getter, archive)

	env.Providers, err = provider.Build(cfg, limiters)
	if err != nil {
		return nil, eris.Wrap(err, "build providers")
	}

	if !o.noCache {
		env.Cache, err = cache.Open(ctx, cfg.Cache)
		if err != nil {
			return nil, eris.Wrap(err, "open cache")
		}
	}

	fetchOpts := fetcher.FetchOptions{UseCache: true, MaxRetries: pc.FetchRetries, Backoff: pc.FetchBackoff}
	budget := pc.MaxFallback
	if budget == 0 {
		budget = -1
	}
	env.Enricher = news.NewEnricher(env.Content, budget, fetchOpts)
	env.Aggregator = news.NewAggregator(env.Providers.News, env.Cache, env.Enricher)
	env.Trials = trials.NewCollector(env.Providers.Trials, pc.TrialPageSize)
	env.Financial = financial.NewCollector(env.Providers.Filings, pc.FilingForms, pc.FilingCount)
	env.Resolver = identity.NewResolver(env.Providers.EDGAR)

	builderOpts := []profile.Option{
		profile.WithMaxNews(pc.NewsMaxResults),
		profile.WithNewsCompleter(env.Enricher),
		profile.WithIdentityFiller(env.Resolver),
	}
	if o.noCache {
		builderOpts = append(builderOpts, profile.WithNewsOptions(news.WithoutCache()))
	}
	env.Builder = profile.NewBuilder(env.Trials, env.Financial, env.Aggregator, builderOpts...)

	if o.withStore {
		env.Store, err = store.Open(ctx, cfg.Store)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "open store")
		}
	}

	zap.L().Debug("pipeline initialized",
		zap.Strings("news_tiers", env.Aggregator.Tiers()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("cache_enabled", env.Cache != nil),
	)
	return env, nil
}

func initArchive(ctx context.Context, fc config.FetchConfig) (fetcher.Archive, error) {
	switch fc.ArchiveBackend {
	case "s3":
		a, err := fetcher.NewS3ArchiveFromEnv(ctx, fc.S3Bucket, fc.S3Prefix, fc.S3Region)
		if err != nil {
			return nil, eris.Wrap(err, "init s3 archive")
		}
		return a, nil
	default:
		return fetcher.NewFileArchive(fc.ArchiveDir), nil
	}
}
