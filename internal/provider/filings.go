package provider

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/pkg/edgar"
)

// EDGARFilings lists filings from SEC EDGAR.
type EDGARFilings struct {
	client edgar.Client
	now    func() time.Time
}

// NewEDGARFilings creates the filing adapter.
func NewEDGARFilings(client edgar.Client) *EDGARFilings {
	return &EDGARFilings{client: client, now: time.Now}
}

// Filings implements FilingProvider. A ticker without a CIK is resolved
// through the SEC ticker file first.
func (p *EDGARFilings) Filings(ctx context.Context, ticker, cik, form string, count int) ([]model.FilingRecord, error) {
	ticker = strings.TrimSpace(ticker)
	cik = strings.TrimSpace(cik)
	if ticker == "" && cik == "" {
		return nil, ErrNoIdentifier
	}

	if cik == "" {
		resolved, err := p.client.LookupCIK(ctx, ticker)
		if err != nil {
			return nil, eris.Wrapf(err, "provider: resolve cik for %s", ticker)
		}
		cik = resolved
	}

	rows, err := p.client.RecentFilings(ctx, cik, form, count)
	if err != nil {
		return nil, err
	}

	fetched := p.now().UTC()
	out := make([]model.FilingRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.FilingRecord{
			Form:            r.Form,
			FilingDate:      r.FilingDate,
			AccessionNumber: r.AccessionNumber,
			PrimaryDocument: r.PrimaryDocument,
			FileLocation:    r.DocumentURL,
			SourceURL:       r.IndexURL,
			FetchedAt:       fetched,
		})
	}
	return out, nil
}
