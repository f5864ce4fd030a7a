// Package provider adapts external news, trial and filing APIs to the narrow
// interfaces the pipeline consumes.
//
// Adapters return ([]T, error). They never panic and never retry; the
// aggregators decide what a failure means for the profile.
package provider

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
)

var (
	// ErrMissingCredentials is returned without network I/O when a keyed
	// provider has no API key configured.
	ErrMissingCredentials = eris.New("provider: missing credentials")

	// ErrNoIdentifier is returned without network I/O when a filing lookup
	// has neither a ticker nor a CIK.
	ErrNoIdentifier = eris.New("provider: no ticker or cik")
)

// NewsProvider searches one news source.
type NewsProvider interface {
	// Name identifies the tier in logs and outcomes.
	Name() string
	// Search returns at most max articles for the company.
	Search(ctx context.Context, company string, max int) ([]model.RawArticle, error)
}

// TrialProvider searches a clinical trial registry.
type TrialProvider interface {
	Search(ctx context.Context, term string, pageSize int) ([]model.Study, error)
}

// FilingProvider lists recent registry filings of one form type, newest
// first.
type FilingProvider interface {
	Filings(ctx context.Context, ticker, cik, form string, count int) ([]model.FilingRecord, error)
}

// Phrase quotes a company name for exact-phrase search.
func Phrase(company string) string {
	return `"` + company + `"`
}

// IsSkip reports whether err means the provider was skipped rather than
// failed.
func IsSkip(err error) bool {
	return errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrNoIdentifier)
}

// guardedNews wraps a NewsProvider in a circuit breaker. Skips do not count
// against the breaker.
type guardedNews struct {
	inner NewsProvider
	cb    *resilience.CircuitBreaker
}

// GuardNews wraps p so repeated failures open a circuit for p.Name().
func GuardNews(p NewsProvider, breakers *resilience.ServiceBreakers) NewsProvider {
	return &guardedNews{inner: p, cb: breakers.Get("news:" + p.Name())}
}

func (g *guardedNews) Name() string { return g.inner.Name() }

func (g *guardedNews) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	var skip error
	out, err := resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) ([]model.RawArticle, error) {
		res, err := g.inner.Search(ctx, company, max)
		if IsSkip(err) {
			skip = err
			return nil, nil
		}
		return res, err
	})
	if skip != nil {
		return nil, skip
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		zap.L().Debug("provider: circuit open, skipping", zap.String("provider", g.inner.Name()))
	}
	return out, err
}

type guardedTrials struct {
	inner TrialProvider
	cb    *resilience.CircuitBreaker
}

// GuardTrials wraps p in the "trials" circuit breaker.
func GuardTrials(p TrialProvider, breakers *resilience.ServiceBreakers) TrialProvider {
	return &guardedTrials{inner: p, cb: breakers.Get("trials")}
}

func (g *guardedTrials) Search(ctx context.Context, term string, pageSize int) ([]model.Study, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) ([]model.Study, error) {
		return g.inner.Search(ctx, term, pageSize)
	})
}

type guardedFilings struct {
	inner FilingProvider
	cb    *resilience.CircuitBreaker
}

// GuardFilings wraps p in the "filings" circuit breaker.
func GuardFilings(p FilingProvider, breakers *resilience.ServiceBreakers) FilingProvider {
	return &guardedFilings{inner: p, cb: breakers.Get("filings")}
}

func (g *guardedFilings) Filings(ctx context.Context, ticker, cik, form string, count int) ([]model.FilingRecord, error) {
	var skip error
	out, err := resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) ([]model.FilingRecord, error) {
		res, err := g.inner.Filings(ctx, ticker, cik, form, count)
		if IsSkip(err) {
			skip = err
			return nil, nil
		}
		return res, err
	})
	if skip != nil {
		return nil, skip
	}
	return out, err
}
