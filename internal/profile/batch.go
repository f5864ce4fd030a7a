package profile

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/store"
)

// Saver persists a profile. store.Store implements it.
type Saver interface {
	SaveProfile(ctx context.Context, p *model.CompanyProfile) error
}

var _ Saver = (store.Store)(nil)

// BatchResult summarizes a batch run.
type BatchResult struct {
	RunID     string
	Succeeded int
	Failed    int
	Degraded  int
	Profiles  []*model.CompanyProfile
	Reports   []ProfileReport
	Duration  time.Duration
}

// Batch builds and saves profiles for many companies.
type Batch struct {
	builder     *Builder
	saver       Saver
	concurrency int
	newRunID    func() string
}

// NewBatch creates a Batch. concurrency below 1 processes one company at
// a time.
func NewBatch(builder *Builder, saver Saver, concurrency int) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batch{builder: builder, saver: saver, concurrency: concurrency, newRunID: uuid.NewString}
}

// WithRunID fixes the run id.
func (b *Batch) WithRunID(id string) *Batch {
	b.newRunID = func() string { return id }
	return b
}

// Run builds every identity and saves each profile. A company whose
// profile cannot be saved counts as failed; the batch continues either
// way. Results keep input order. Run only returns early when ctx is
// cancelled, and the companies finished so far are still reported.
func (b *Batch) Run(ctx context.Context, ids []model.Identity) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		RunID:    b.newRunID(),
		Profiles: make([]*model.CompanyProfile, len(ids)),
		Reports:  make([]ProfileReport, len(ids)),
	}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("batch: starting", zap.Int("companies", len(ids)), zap.Int("concurrency", b.concurrency))

	var succeeded, failed, degraded atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, report := b.builder.Build(gctx, id)
			p.RunID = res.RunID
			res.Profiles[i] = p
			res.Reports[i] = report
			if report.Degraded() {
				degraded.Add(1)
			}

			if b.saver != nil {
				if err := b.saver.SaveProfile(gctx, p); err != nil {
					log.Error("batch: save failed",
						zap.String("company", report.Company),
						zap.String("profile_id", p.ID),
						zap.Error(err),
					)
					failed.Add(1)
					return nil
				}
			}
			succeeded.Add(1)
			return nil
		})
	}
	err := g.Wait()

	res.Succeeded = int(succeeded.Load())
	res.Failed = int(failed.Load())
	res.Degraded = int(degraded.Load())
	res.Duration = time.Since(start)
	res.Profiles, res.Reports = compact(res.Profiles, res.Reports)

	log.Info("batch: complete",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("degraded", res.Degraded),
		zap.Duration("elapsed", res.Duration),
	)
	return res, err
}

// compact drops slots for companies that never ran.
func compact(ps []*model.CompanyProfile, rs []ProfileReport) ([]*model.CompanyProfile, []ProfileReport) {
	outP := ps[:0]
	outR := rs[:0]
	for i, p := range ps {
		if p != nil {
			outP = append(outP, p)
			outR = append(outR, rs[i])
		}
	}
	return outP, outR
}
