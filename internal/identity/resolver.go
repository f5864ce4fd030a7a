package identity

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
)

// CIKLookup maps a ticker to a CIK. edgar.Client implements it.
type CIKLookup interface {
	LookupCIK(ctx context.Context, ticker string) (string, error)
}

// Resolver fills identifiers the upstream resolution step left blank.
type Resolver struct {
	lookup CIKLookup
}

// NewResolver creates a Resolver.
func NewResolver(lookup CIKLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// FillCIK sets id.CIK from the ticker when it is missing. A failed lookup
// leaves the identity unchanged and is only logged.
func (r *Resolver) FillCIK(ctx context.Context, id *model.Identity) {
	if id.CIK != "" || id.Ticker == "" || r.lookup == nil {
		return
	}
	cik, err := r.lookup.LookupCIK(ctx, id.Ticker)
	if err != nil {
		zap.L().Warn("identity: cik lookup failed",
			zap.String("ticker", id.Ticker),
			zap.Error(err),
		)
		return
	}
	id.CIK = cik
}
