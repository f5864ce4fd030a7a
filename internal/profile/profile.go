// Package profile merges the trial, financial and news domains into one
// company profile and runs batches of companies.
package profile

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/news"
)

// Domains of a profile.
const (
	DomainTrials    = "trials"
	DomainFinancial = "financial"
	DomainNews      = "news"
)

// TrialCollector builds the pipeline section.
type TrialCollector interface {
	Collect(ctx context.Context, id model.Identity) (model.Pipeline, error)
}

// FinancialCollector builds the financial section.
type FinancialCollector interface {
	Collect(ctx context.Context, id model.Identity) (model.Financial, error)
}

// NewsFetcher builds the news section. *news.Aggregator implements it.
type NewsFetcher interface {
	Fetch(ctx context.Context, company string, max int, opts ...news.FetchOption) (*news.Result, error)
}

// NewsCompleter fills fields news items still lack. *news.Enricher
// implements it.
type NewsCompleter interface {
	Complete(ctx context.Context, items []model.NewsItem) []model.NewsItem
}

// IdentityFiller completes identifiers before collection.
// *identity.Resolver implements it.
type IdentityFiller interface {
	FillCIK(ctx context.Context, id *model.Identity)
}

// DomainError records a domain that degraded to its default or partial
// value.
type DomainError struct {
	Domain string
	Err    error
	Panic  bool
}

func (e *DomainError) Error() string {
	if e.Panic {
		return fmt.Sprintf("%s: panic: %v", e.Domain, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Domain, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// ProfileReport describes how a Build went.
type ProfileReport struct {
	ProfileID string
	Company   string
	Errors    []*DomainError
	NewsCache bool
	Duration  time.Duration
}

// Degraded reports whether any domain failed in whole or part.
func (r ProfileReport) Degraded() bool { return len(r.Errors) > 0 }

// Failed returns the domains that reported errors.
func (r ProfileReport) Failed() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Domain)
	}
	return out
}

// Builder assembles profiles.
type Builder struct {
	trials    TrialCollector
	financial FinancialCollector
	news      NewsFetcher
	completer NewsCompleter
	filler    IdentityFiller
	maxNews   int
	newsOpts  []news.FetchOption
	now       func() time.Time
	newID     func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithNewsCompleter runs c over the aggregated news items.
func WithNewsCompleter(c NewsCompleter) Option {
	return func(b *Builder) { b.completer = c }
}

// WithIdentityFiller fills missing identifiers before collection.
func WithIdentityFiller(f IdentityFiller) Option {
	return func(b *Builder) { b.filler = f }
}

// WithMaxNews sets the number of news items requested.
func WithMaxNews(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxNews = n
		}
	}
}

// WithNewsOptions passes options to every news fetch.
func WithNewsOptions(opts ...news.FetchOption) Option {
	return func(b *Builder) { b.newsOpts = append(b.newsOpts, opts...) }
}

// WithClock overrides the clock and id generator.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(b *Builder) {
		b.now = now
		if newID != nil {
			b.newID = newID
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(trials TrialCollector, financial FinancialCollector, newsFetcher NewsFetcher, opts ...Option) *Builder {
	b := &Builder{
		trials:    trials,
		financial: financial,
		news:      newsFetcher,
		maxNews:   news.DefaultMaxResults,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build collects every domain for id and merges them. A domain that fails
// or panics contributes its empty default and a DomainError; Build always
// returns a complete profile.
func (b *Builder) Build(ctx context.Context, id model.Identity) (*model.CompanyProfile, ProfileReport) {
	start := b.now()
	canonical := id
	canonical.NameVariants = append([]string(nil), id.NameVariants...)
	if b.filler != nil {
		b.filler.FillCIK(ctx, &canonical)
	}

	p := &model.CompanyProfile{
		ID:        b.newID(),
		InputName: canonical.InputName,
		Canonical: canonical,
		CreatedAt: start.UTC(),
	}
	report := ProfileReport{ProfileID: p.ID, Company: canonical.Name()}
	log := zap.L().With(zap.String("company", report.Company), zap.String("profile_id", p.ID))

	var derr *DomainError
	p.Pipeline, derr = isolate(DomainTrials, model.EmptyPipeline(), func() (model.Pipeline, error) {
		return b.trials.Collect(ctx, canonical)
	})
	report.add(derr)

	p.Financial, derr = isolate(DomainFinancial, emptyFinancial(canonical), func() (model.Financial, error) {
		return b.financial.Collect(ctx, canonical)
	})
	report.add(derr)

	p.News, derr = isolate(DomainNews, []model.NewsItem{}, func() ([]model.NewsItem, error) {
		res, err := b.news.Fetch(ctx, canonical.Name(), b.maxNews, b.newsOpts...)
		if err != nil {
			return nil, err
		}
		report.NewsCache = res.FromCache
		items := res.Items
		if b.completer != nil {
			items = b.completer.Complete(ctx, items)
		}
		return items, res.Err()
	})
	report.add(derr)

	normalizeEmpty(p)
	report.Duration = b.now().Sub(start)

	fields := []zap.Field{
		zap.Int("trials", p.Pipeline.Total()),
		zap.Int("filings", len(p.Financial.Filings)),
		zap.Int("news", len(p.News)),
		zap.Duration("elapsed", report.Duration),
	}
	if report.Degraded() {
		log.Warn("profile: built with degraded domains", append(fields, zap.Strings("degraded", report.Failed()))...)
	} else {
		log.Info("profile: built", fields...)
	}
	return p, report
}

func (r *ProfileReport) add(e *DomainError) {
	if e != nil {
		r.Errors = append(r.Errors, e)
	}
}

// isolate runs fn, turning an error or panic into a DomainError. A value
// returned alongside an error is kept; a panic yields fallback.
func isolate[T any](domain string, fallback T, fn func() (T, error)) (out T, derr *DomainError) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("profile: domain panicked",
				zap.String("domain", domain),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			out = fallback
			derr = &DomainError{Domain: domain, Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()

	out, err := fn()
	if err != nil {
		zap.L().Warn("profile: domain degraded", zap.String("domain", domain), zap.Error(err))
		return out, &DomainError{Domain: domain, Err: err}
	}
	return out, nil
}

func emptyFinancial(id model.Identity) model.Financial {
	return model.Financial{Public: id.IsPublic(), Filings: []model.Filing{}, Provenance: []model.Provenance{}}
}

// normalizeEmpty makes every collection serialize as [] or {}.
func normalizeEmpty(p *model.CompanyProfile) {
	if p.Pipeline.Candidates == nil {
		p.Pipeline.Candidates = []model.Trial{}
	}
	if p.Pipeline.CountsByPhase == nil {
		p.Pipeline.CountsByPhase = map[model.Phase]int{}
	}
	if p.Financial.Filings == nil {
		p.Financial.Filings = []model.Filing{}
	}
	if p.Financial.Provenance == nil {
		p.Financial.Provenance = []model.Provenance{}
	}
	if p.News == nil {
		p.News = []model.NewsItem{}
	}
	if p.Canonical.NameVariants == nil {
		p.Canonical.NameVariants = []string{}
	}
}

// Summary renders a one-line description of a report.
func (r ProfileReport) Summary() string {
	if !r.Degraded() {
		return r.Company + ": ok"
	}
	return r.Company + ": degraded (" + strings.Join(r.Failed(), ", ") + ")"
}
