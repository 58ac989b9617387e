// Package pwerm implements the probability-weighted exit scenario
// valuator: it drives a set of discrete exit outcomes through the
// waterfall resolver for one investor position and aggregates the results
// into expected MOIC and IRR.
package pwerm

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
	"github.com/TalFeiny/Dilla-sub007/internal/waterfall"
)

// PositionHolder is the cap-table name under which the evaluated position
// is tracked.
const PositionHolder = "Evaluated Position"

// probTolerance matches the fraction tolerance used by the ledger.
const probTolerance = 1e-6

// Valuator evaluates investor positions against scenario sets.
type Valuator struct {
	table *benchmark.Table
}

// New creates a Valuator backed by the given benchmark table, which
// supplies default scenario bands when the caller provides none.
func New(table *benchmark.Table) *Valuator {
	return &Valuator{table: table}
}

// Evaluate models the position's entry into the latest round, runs every
// scenario through the waterfall, and aggregates probability-weighted
// return metrics. A nil or empty scenario slice selects the stage's
// default bear/base/bull set.
func (v *Valuator) Evaluate(
	facts model.CompanyFacts,
	final *model.CapTableSnapshot,
	pos model.InvestorPosition,
	scenarios []model.ExitScenario,
) (model.ValuationSummary, error) {
	var summary model.ValuationSummary

	if final == nil {
		return summary, eris.New("pwerm: no cap-table snapshot to evaluate against")
	}
	if pos.InvestmentAmount <= 0 {
		return summary, eris.Errorf("pwerm: investment amount must be positive, got %v", pos.InvestmentAmount)
	}

	entrySnap, entryPct, err := enterPosition(final, pos.InvestmentAmount)
	if err != nil {
		return summary, err
	}
	pos.EntryOwnershipPct = entryPct
	summary.EntryOwnershipPct = entryPct

	if len(scenarios) == 0 {
		scenarios = v.DefaultScenarios(facts.Stage, facts.Valuation.Value)
	}
	scenarios, renormalized, lowConfidence := normalizeProbabilities(scenarios)

	summary.Renormalized = renormalized
	summary.LowConfidence = lowConfidence
	summary.TotalInvested = pos.TotalInvested()

	currentValuation := facts.Valuation.Value

	for _, sc := range scenarios {
		result, err := v.evaluateScenario(entrySnap, pos, sc, currentValuation)
		if err != nil {
			return summary, err
		}
		summary.Results = append(summary.Results, result)
		summary.ExpectedMOIC += sc.Probability * result.MOIC
		summary.ExpectedIRR += sc.Probability * result.IRR
	}

	zap.L().Debug("pwerm: evaluation complete",
		zap.String("company", facts.Name),
		zap.Float64("entry_pct", entryPct),
		zap.Float64("expected_moic", summary.ExpectedMOIC),
		zap.Float64("expected_irr", summary.ExpectedIRR),
	)

	return summary, nil
}

// evaluateScenario applies optional follow-on dilution, resolves the
// waterfall at the scenario's exit value, and computes return metrics.
func (v *Valuator) evaluateScenario(
	entrySnap *model.CapTableSnapshot,
	pos model.InvestorPosition,
	sc model.ExitScenario,
	currentValuation float64,
) (model.ScenarioResult, error) {
	snap := entrySnap.Clone()
	invested := pos.InvestmentAmount

	if pos.FollowOnAmount > 0 && sc.ExitValue > 0 {
		applyFollowOn(snap, pos.FollowOnAmount, currentValuation, sc.ExitValue)
		invested += pos.FollowOnAmount
	}

	exitPct := snap.Holders[PositionHolder].Fraction

	res, err := waterfall.Resolve(snap, sc.ExitValue)
	if err != nil {
		return model.ScenarioResult{}, eris.Wrapf(err, "pwerm: scenario %s", sc.Name)
	}
	proceeds := res.Payouts[PositionHolder]

	result := model.ScenarioResult{
		Scenario:         sc,
		Proceeds:         proceeds,
		MOIC:             moic(proceeds, invested),
		IRR:              irr(proceeds, invested, sc.TimeToExitYears),
		ExitOwnershipPct: exitPct,
	}

	// A sub-1x outcome is flagged as preference-driven only when the
	// position's common-equivalent value would have covered the capital:
	// the loss came from the stack ahead, not a low exit.
	if result.MOIC < 1.0 && exitPct*sc.ExitValue >= invested &&
		waterfall.SeniorPreferenceAhead(snap, PositionHolder) > 0 {
		result.BelowLiquidationPreference = true
	}

	return result, nil
}

// enterPosition inserts the evaluated position into the latest snapshot.
// The entry money is carved out of the round's own investors when the
// position fits inside the round; larger checks extend the round with an
// additional dilution event at the same post-money.
func enterPosition(final *model.CapTableSnapshot, amount float64) (*model.CapTableSnapshot, float64, error) {
	snap := final.Clone()
	post := snap.PostMoney
	if post <= 0 {
		return nil, 0, eris.Errorf("pwerm: snapshot %q has no post-money valuation", snap.RoundName)
	}

	entryPct := amount / post
	terms := entryTerms(snap)

	// Fraction held by the entry round's investors.
	roundFrac := 0.0
	for _, h := range snap.Holders {
		if h.RoundIndex == snap.RoundIndex && h.Preferred() {
			roundFrac += h.Fraction
		}
	}

	if entryPct <= roundFrac {
		// Carve proportionally from the round's investors.
		scale := (roundFrac - entryPct) / roundFrac
		for name, h := range snap.Holders {
			if h.RoundIndex == snap.RoundIndex && h.Preferred() {
				h.Fraction *= scale
				h.Invested *= scale
				snap.Holders[name] = h
			}
		}
	} else {
		// Position exceeds the round's new money: model an extension.
		entryPct = amount / (post + amount)
		for name, h := range snap.Holders {
			h.Fraction *= 1 - entryPct
			snap.Holders[name] = h
		}
		snap.PostMoney = post + amount
	}

	snap.Holders[PositionHolder] = model.Holding{
		Fraction:   entryPct,
		Invested:   amount,
		Terms:      &terms,
		RoundIndex: snap.RoundIndex,
	}

	if !snap.Balanced() {
		return nil, 0, eris.Errorf("pwerm: entry broke sum-to-1 invariant (sum %v)", snap.FractionSum())
	}
	return snap, entryPct, nil
}

// entryTerms picks the terms of the entry round, defaulting to 1x
// non-participating behind the existing stack.
func entryTerms(snap *model.CapTableSnapshot) model.SecurityTerms {
	maxSeniority := 0
	for _, h := range snap.Holders {
		if h.Terms == nil {
			continue
		}
		if h.RoundIndex == snap.RoundIndex {
			return *h.Terms
		}
		if h.Terms.Seniority > maxSeniority {
			maxSeniority = h.Terms.Seniority
		}
	}
	return model.DefaultTerms(maxSeniority + 1)
}

// applyFollowOn simulates one additional dilution event at the scenario's
// implied intermediate valuation (geometric midpoint between the current
// valuation and the exit value) and adds the follow-on to the position.
func applyFollowOn(snap *model.CapTableSnapshot, followOn, currentValuation, exitValue float64) {
	intermediate := exitValue
	if currentValuation > 0 {
		intermediate = math.Sqrt(currentValuation * exitValue)
	}
	if intermediate <= 0 {
		return
	}

	newPct := followOn / (intermediate + followOn)
	for name, h := range snap.Holders {
		h.Fraction *= 1 - newPct
		snap.Holders[name] = h
	}

	h := snap.Holders[PositionHolder]
	h.Fraction += newPct
	h.Invested += followOn
	snap.Holders[PositionHolder] = h
}

// DefaultScenarios builds the stage's default bear/base/bull set scaled to
// the company's current valuation.
func (v *Valuator) DefaultScenarios(stage model.Stage, currentValuation float64) []model.ExitScenario {
	bands := v.table.ScenarioBands(stage)
	scenarios := make([]model.ExitScenario, 0, len(bands))
	for _, b := range bands {
		exitType := model.ExitType(b.ExitType)
		if b.ExitMultiple == 0 {
			exitType = model.ExitShutdown
		}
		scenarios = append(scenarios, model.ExitScenario{
			Name:            b.Name,
			Probability:     b.Probability,
			ExitValue:       currentValuation * b.ExitMultiple,
			TimeToExitYears: b.Years,
			ExitType:        exitType,
		})
	}
	return scenarios
}

// normalizeProbabilities validates the scenario weights. Off-by-drift sums
// are renormalized proportionally; an all-zero set falls back to equal
// weighting and flags low confidence.
func normalizeProbabilities(scenarios []model.ExitScenario) (out []model.ExitScenario, renormalized, lowConfidence bool) {
	out = make([]model.ExitScenario, len(scenarios))
	copy(out, scenarios)

	var sum float64
	for _, sc := range out {
		sum += sc.Probability
	}

	switch {
	case sum <= 0:
		equal := 1.0 / float64(len(out))
		for i := range out {
			out[i].Probability = equal
		}
		zap.L().Warn("pwerm: all scenario probabilities are zero, using equal weights")
		return out, true, true
	case math.Abs(sum-1.0) > probTolerance:
		for i := range out {
			out[i].Probability /= sum
		}
		return out, true, false
	default:
		return out, false, false
	}
}

// moic guards against zero invested capital.
func moic(proceeds, invested float64) float64 {
	if invested <= 0 {
		return 0
	}
	return proceeds / invested
}

// irr solves total x (1+irr)^years = proceeds in closed form. Zero or
// negative horizons yield 0; a total loss yields -1.
func irr(proceeds, invested, years float64) float64 {
	if invested <= 0 || years <= 0 {
		return 0
	}
	if proceeds <= 0 {
		return -1.0
	}
	return math.Pow(proceeds/invested, 1.0/years) - 1.0
}
