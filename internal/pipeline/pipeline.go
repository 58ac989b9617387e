// Package pipeline orchestrates a full company analysis: fact
// normalization, cap-table reconstruction, probability-weighted exit
// valuation, and fund-fit scoring, assembled into one report.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/captable"
	"github.com/TalFeiny/Dilla-sub007/internal/config"
	"github.com/TalFeiny/Dilla-sub007/internal/fundfit"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
	"github.com/TalFeiny/Dilla-sub007/internal/normalize"
	"github.com/TalFeiny/Dilla-sub007/internal/pwerm"
	"github.com/TalFeiny/Dilla-sub007/internal/store"
)

// Request is one company analysis job.
type Request struct {
	Facts     model.RawFacts         `json:"facts"`
	Position  model.InvestorPosition `json:"position"`
	Fund      model.FundContext      `json:"fund"`
	Scenarios []model.ExitScenario   `json:"scenarios,omitempty"`
}

// Pipeline wires the analysis stages together. The store is optional;
// a nil store skips persistence.
type Pipeline struct {
	cfg        *config.Config
	table      *benchmark.Table
	normalizer *normalize.Normalizer
	valuator   *pwerm.Valuator
	scorer     *fundfit.Scorer
	store      store.Store
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, table *benchmark.Table, st store.Store) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		table:      table,
		normalizer: normalize.New(table),
		valuator:   pwerm.New(table),
		scorer:     fundfit.New(cfg.Scorer, table),
		store:      st,
	}
}

// Run executes the full analysis for a single company.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.AnalysisReport, error) {
	log := zap.L().With(zap.String("company", req.Facts.Name))
	log.Info("pipeline: starting analysis")

	report := &model.AnalysisReport{
		RunID:     uuid.New().String(),
		Company:   req.Facts.Name,
		Position:  req.Position,
		CreatedAt: time.Now().UTC(),
	}

	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		duration := time.Since(start).Milliseconds()

		timing := model.PhaseTiming{Name: name, DurationMs: duration}
		if err != nil {
			timing.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}
		report.Phases = append(report.Phases, timing)
		return err
	}

	// Phase 1: normalize raw facts into a complete picture. Never fails;
	// the normalizer always produces a best-effort estimate.
	var facts model.CompanyFacts
	_ = trackPhase("normalize", func() error {
		facts = p.normalizer.Normalize(req.Facts)
		return nil
	})
	report.Facts = facts

	// Phase 2: rebuild the cap table round by round.
	var ledger *captable.Ledger
	if err := trackPhase("captable", func() error {
		var err error
		poolPct := p.table.ForStage(facts.Stage).OptionPoolPct
		ledger, err = captable.Build(facts.FundingRounds, poolPct)
		return err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: captable")
	}
	report.CapTable = snapshotValues(ledger)
	report.RejectedRounds = ledger.Rejected

	// Phase 3: probability-weighted scenario valuation.
	if err := trackPhase("valuation", func() error {
		summary, err := p.valuator.Evaluate(facts, ledger.Final(), req.Position, req.Scenarios)
		if err != nil {
			return err
		}
		report.Valuation = summary
		report.Position.EntryOwnershipPct = summary.EntryOwnershipPct
		return nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: valuation")
	}

	// Phase 4: fund-fit scoring. Never fails; SKIP is a valid outcome.
	_ = trackPhase("fundfit", func() error {
		report.FundFit = p.scorer.Score(report.Valuation, facts, ledger.Final(), req.Fund)
		return nil
	})

	report.Confidence = confidence(facts, report.Valuation)

	// Phase 5: optional persistence.
	if p.store != nil {
		if err := trackPhase("persist", func() error {
			return p.store.SaveReport(ctx, report)
		}); err != nil {
			// The analysis itself succeeded; surface the save failure
			// in the report rather than discarding the work.
			log.Warn("pipeline: report not persisted", zap.String("run_id", report.RunID))
		}
	}

	log.Info("pipeline: analysis complete",
		zap.String("run_id", report.RunID),
		zap.Float64("expected_moic", report.Valuation.ExpectedMOIC),
		zap.String("recommendation", string(report.FundFit.Recommendation)),
		zap.Float64("confidence", report.Confidence),
	)

	return report, nil
}

func snapshotValues(ledger *captable.Ledger) []model.CapTableSnapshot {
	out := make([]model.CapTableSnapshot, 0, len(ledger.Snapshots))
	for _, s := range ledger.Snapshots {
		out = append(out, s)
	}
	return out
}

// confidence folds provenance into a single 0-1 indicator: each inferred
// metric costs a step, and low-confidence flags from normalization or
// probability renormalization cost more.
func confidence(facts model.CompanyFacts, valuation model.ValuationSummary) float64 {
	inferred, _ := facts.InferredFieldCount()
	c := 1.0
	c -= 0.1 * float64(inferred)
	if facts.LowConfidence {
		c -= 0.2
	}
	if valuation.LowConfidence {
		c -= 0.1
	}
	if c < 0.1 {
		c = 0.1
	}
	return c
}
