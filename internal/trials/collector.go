package trials

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/provider"
)

// DefaultPageSize is the number of studies requested per variant.
const DefaultPageSize = 5

// Collector queries the trial registry once per name variant.
type Collector struct {
	provider provider.TrialProvider
	pageSize int
	now      func() time.Time
}

// NewCollector creates a Collector. A non-positive pageSize uses
// DefaultPageSize.
func NewCollector(p provider.TrialProvider, pageSize int) *Collector {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Collector{provider: p, pageSize: pageSize, now: time.Now}
}

// WithNow overrides the clock used for fetched timestamps.
func (c *Collector) WithNow(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Collect searches every name variant of the company, falling back to the
// resolved name, and normalizes the combined results. A failed variant is
// skipped; its error is joined into the returned error alongside a valid
// pipeline.
func (c *Collector) Collect(ctx context.Context, id model.Identity) (model.Pipeline, error) {
	log := zap.L().With(zap.String("company", id.Name()))

	var (
		batches []VariantStudies
		errs    []error
	)
	for _, v := range id.QueryVariants() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, eris.Wrap(err, "trials: collect"))
			break
		}
		studies, err := c.provider.Search(ctx, v, c.pageSize)
		if err != nil {
			log.Warn("trials: variant search failed", zap.String("variant", v), zap.Error(err))
			errs = append(errs, eris.Wrapf(err, "trials: variant %q", v))
			continue
		}
		batches = append(batches, VariantStudies{Variant: v, Studies: studies})
	}

	p := Normalize(id.Name(), batches, c.now())
	log.Debug("trials: collected",
		zap.Int("candidates", p.Total()),
		zap.Int("variants", len(batches)),
	)
	return p, errors.Join(errs...)
}
