// Package financial collects recent regulatory filings for public
// companies.
package financial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/provider"
)

// SourceType labels filing provenance.
const SourceType = "edgar"

// DefaultForms are the annual and quarterly report forms.
var DefaultForms = []string{"10-K", "10-Q"}

// DefaultCount is the number of filings requested per form.
const DefaultCount = 2

// Normalize builds the financial section. A private company gets an empty
// section with public=false. Each filing gets exactly one provenance entry.
func Normalize(records []model.FilingRecord, public bool) model.Financial {
	fin := model.Financial{
		Public:     public,
		Filings:    []model.Filing{},
		Provenance: []model.Provenance{},
	}
	if !public {
		return fin
	}
	for _, r := range records {
		fetched := r.FetchedAt.UTC().Format(time.RFC3339)
		fin.Filings = append(fin.Filings, model.Filing{
			FormType:     r.Form,
			FilingDate:   r.FilingDate,
			FileLocation: r.FileLocation,
			SourceURL:    r.SourceURL,
			FetchedAt:    fetched,
		})
		fin.Provenance = append(fin.Provenance, model.Provenance{
			SourceURL:       r.SourceURL,
			SourceType:      SourceType,
			FetchedAt:       fetched,
			EvidenceSnippet: fmt.Sprintf("%s filing on %s", r.Form, r.FilingDate),
		})
	}
	return fin
}

// Collector requests the most recent filings of each form.
type Collector struct {
	provider provider.FilingProvider
	forms    []string
	count    int
}

// NewCollector creates a Collector. Empty forms and a non-positive count
// use the defaults.
func NewCollector(p provider.FilingProvider, forms []string, count int) *Collector {
	if len(forms) == 0 {
		forms = DefaultForms
	}
	if count <= 0 {
		count = DefaultCount
	}
	return &Collector{provider: p, forms: forms, count: count}
}

// Collect returns the financial section for id. A company with neither
// ticker nor CIK is private and no request is made. Each form is fetched
// independently; failures are joined into the returned error and the
// filings that did arrive are kept.
func (c *Collector) Collect(ctx context.Context, id model.Identity) (model.Financial, error) {
	if !id.IsPublic() {
		return Normalize(nil, false), nil
	}
	log := zap.L().With(zap.String("company", id.Name()), zap.String("ticker", id.Ticker), zap.String("cik", id.CIK))

	var (
		records []model.FilingRecord
		errs    []error
	)
	for _, form := range c.forms {
		rows, err := c.provider.Filings(ctx, id.Ticker, id.CIK, form, c.count)
		if err != nil {
			log.Warn("financial: form fetch failed", zap.String("form", form), zap.Error(err))
			errs = append(errs, eris.Wrapf(err, "financial: form %s", form))
			continue
		}
		if len(rows) > c.count {
			rows = rows[:c.count]
		}
		records = append(records, rows...)
	}

	fin := Normalize(records, true)
	log.Debug("financial: collected", zap.Int("filings", len(fin.Filings)))
	return fin, errors.Join(errs...)
}
