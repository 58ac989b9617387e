package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// BatchResult pairs one request with its outcome. Failures are carried
// per company so one bad input does not sink the batch.
type BatchResult struct {
	Company string                `json:"company"`
	Report  *model.AnalysisReport `json:"report,omitempty"`
	Err     error                 `json:"-"`
	Error   string                `json:"error,omitempty"`
}

// RunBatch analyzes companies concurrently, bounded by the configured
// concurrency limit. Results keep the input order.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))

	limit := p.cfg.Batch.MaxConcurrentCompanies
	if limit <= 0 {
		limit = 5
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			report, err := p.Run(gCtx, req)
			results[i] = BatchResult{Company: req.Facts.Name, Report: report, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("total", len(reqs)),
		zap.Int("failed", failed),
	)

	return results
}
