package provider

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/config"
	"github.com/sells-group/evidence-cli/internal/fetcher"
	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/pkg/bing"
	"github.com/sells-group/evidence-cli/pkg/ctgov"
	"github.com/sells-group/evidence-cli/pkg/edgar"
	"github.com/sells-group/evidence-cli/pkg/gdelt"
	"github.com/sells-group/evidence-cli/pkg/gnews"
	"github.com/sells-group/evidence-cli/pkg/serpapi"
)

// Set is the full collection of adapters for one process.
type Set struct {
	News     []NewsProvider
	Trials   TrialProvider
	Filings  FilingProvider
	EDGAR    edgar.Client
	Breakers *resilience.ServiceBreakers
}

// Build constructs every adapter from config. News tiers follow the order
// of cfg.News.Tiers; each adapter is wrapped in its own circuit breaker.
func Build(cfg *config.Config, limiters map[string]*fetcher.AdaptiveLimiter) (*Set, error) {
	breakers := resilience.NewServiceBreakers(resilience.FromCircuitConfig(
		cfg.Resilience.CircuitFailureThreshold,
		cfg.Resilience.CircuitResetSecs,
	))

	tiers, err := NewsTiers(cfg, breakers, limiters)
	if err != nil {
		return nil, err
	}

	ec := edgar.NewClient(cfg.EDGAR.UserAgent,
		edgar.WithBaseURL(cfg.EDGAR.BaseURL),
		edgar.WithDataBaseURL(cfg.EDGAR.DataBaseURL),
		edgar.WithHTTPClient(fetcher.NewLimitedClient(limiters, 20*time.Second)),
	)
	trials := NewCTGovTrials(ctgov.NewClient(
		ctgov.WithBaseURL(cfg.Trials.BaseURL),
		ctgov.WithHTTPClient(fetcher.NewLimitedClient(limiters, 20*time.Second)),
	))

	return &Set{
		News:     tiers,
		Trials:   GuardTrials(trials, breakers),
		Filings:  GuardFilings(NewEDGARFilings(ec), breakers),
		EDGAR:    ec,
		Breakers: breakers,
	}, nil
}

// NewsTiers builds the ordered news tiers named in cfg.News.Tiers. Every
// client paces its requests through limiters.
func NewsTiers(cfg *config.Config, breakers *resilience.ServiceBreakers, limiters map[string]*fetcher.AdaptiveLimiter) ([]NewsProvider, error) {
	pc := cfg.Pipeline()
	hc := fetcher.NewLimitedClient(limiters, 15*time.Second)
	tiers := make([]NewsProvider, 0, len(cfg.News.Tiers))
	for _, name := range cfg.News.Tiers {
		var p NewsProvider
		switch name {
		case TierSerpAPI:
			p = NewSerpAPINews(serpapi.NewClient(pc.SerpAPIKey, serpapi.WithBaseURL(cfg.News.SerpAPIBaseURL), serpapi.WithHTTPClient(hc)), pc.SerpAPIKey, pc.SerpAPISleep)
		case TierBing:
			p = NewBingNews(bing.NewClient(pc.BingKey, bing.WithBaseURL(cfg.News.BingBaseURL), bing.WithHTTPClient(hc)), pc.BingKey)
		case TierGDELT:
			p = NewGDELTNews(gdelt.NewClient(gdelt.WithBaseURL(cfg.News.GDELTBaseURL), gdelt.WithHTTPClient(hc)))
		case TierGNews:
			p = NewGNewsRSS(gnews.NewClient(gnews.WithBaseURL(cfg.News.GNewsBaseURL), gnews.WithHTTPClient(hc)))
		default:
			return nil, eris.Errorf("provider: unknown news tier %q", name)
		}
		tiers = append(tiers, GuardNews(p, breakers))
	}
	return tiers, nil
}
