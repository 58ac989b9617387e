// Package normalize turns a raw, partial company-facts record into the
// canonical CompanyFacts form: every numeric field gets a definite value
// and a provenance tag, with stage benchmarks filling the gaps. It never
// fails; a best-effort estimate is always produced.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// Normalizer canonicalizes raw facts against a benchmark table.
type Normalizer struct {
	table *benchmark.Table
	rules []AdjustmentRule
	now   func() time.Time
}

// New creates a Normalizer with the default adjustment rule chain.
func New(table *benchmark.Table) *Normalizer {
	return &Normalizer{table: table, rules: DefaultRules, now: time.Now}
}

// dateLayouts are tried in order when parsing round dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"January 2006",
	"Jan 2006",
	"2006",
}

// Normalize produces canonical CompanyFacts from a raw record. Unrecognized
// stages default to seed with LowConfidence set; missing numerics are
// inferred from stage benchmarks through the adjustment rule chain.
func (n *Normalizer) Normalize(raw model.RawFacts) model.CompanyFacts {
	now := n.now()

	stage, known := model.ParseStage(raw.Stage)
	lowConfidence := false
	if !known {
		stage = model.StageSeed
		lowConfidence = true
		zap.L().Warn("normalize: unrecognized stage, defaulting to seed",
			zap.String("company", raw.Name),
			zap.String("stage", raw.Stage),
		)
	}
	bench := n.table.ForStage(stage)

	rounds := n.parseRounds(raw.FundingRounds)
	actualValuation := 0.0
	if raw.Valuation != nil && *raw.Valuation > 0 {
		actualValuation = *raw.Valuation
	}
	if len(rounds) == 0 {
		rounds = synthesizeRounds(stage, n.table, actualValuation, now)
		zap.L().Info("normalize: synthesized round history",
			zap.String("company", raw.Name),
			zap.String("stage", string(stage)),
			zap.Int("rounds", len(rounds)),
		)
	}

	in := RuleInput{
		Stage:            string(stage),
		GrowthMultiplier: bench.GrowthMultiplier,
		LastRoundDate:    lastRoundDate(rounds),
		Now:              now,
		Investors:        investorNames(rounds),
		Geography:        raw.Geography,
	}

	facts := model.CompanyFacts{
		Name:          strings.TrimSpace(raw.Name),
		Geography:     raw.Geography,
		Stage:         stage,
		FundingRounds: rounds,
		LowConfidence: lowConfidence,
	}

	facts.Revenue = n.metric(raw.Revenue, bench.Revenue, bench.Revenue, in)
	facts.GrowthRate = n.growthMetric(raw.GrowthRate, bench.GrowthMultiplier)
	facts.Valuation = n.valuationMetric(raw.Valuation, rounds, bench, in)
	facts.TotalRaised = totalRaisedMetric(raw.TotalRaised, rounds)

	n.reconcileValuation(&facts)

	return facts
}

// valuationRoundTolerance bounds how far a reported valuation may sit from
// the latest round's post-money (as a ratio, either direction) before the
// two are considered inconsistent.
const valuationRoundTolerance = 1.5

// reconcileValuation enforces consistency between a reported valuation and
// the latest round's post-money. A reported valuation that disagrees beyond
// tolerance is downgraded to the round-implied value and the record is
// flagged low confidence; the rounds themselves stay as reported.
func (n *Normalizer) reconcileValuation(facts *model.CompanyFacts) {
	if facts.Valuation.Inferred || len(facts.FundingRounds) == 0 {
		return
	}
	post := facts.FundingRounds[len(facts.FundingRounds)-1].PostMoney()
	if post <= 0 {
		return
	}
	ratio := facts.Valuation.Value / post
	if ratio <= valuationRoundTolerance && ratio >= 1/valuationRoundTolerance {
		return
	}
	zap.L().Warn("normalize: reported valuation inconsistent with latest round",
		zap.String("company", facts.Name),
		zap.Float64("valuation", facts.Valuation.Value),
		zap.Float64("latest_round_post_money", post),
	)
	facts.Valuation = model.Inferred(post, "latest_round_post_money; reported_valuation_inconsistent")
	facts.LowConfidence = true
}

// metric keeps a plausible actual value, otherwise infers from the
// benchmark value through the adjustment rule chain.
func (n *Normalizer) metric(actual *float64, benchValue, ceilingBase float64, in RuleInput) model.Metric {
	if actual != nil && plausible(*actual, ceilingBase) {
		return model.Actual(*actual, "reported")
	}
	mult, notes := applyRules(n.rules, in)
	source := "stage_benchmark"
	if len(notes) > 0 {
		source += "; " + strings.Join(notes, "; ")
	}
	return model.Inferred(benchValue*mult, source)
}

// growthMetric normalizes a reported growth figure to annual-multiplier
// form, or falls back to the stage's typical growth.
func (n *Normalizer) growthMetric(actual *float64, benchGrowth float64) model.Metric {
	if actual != nil && *actual > 0 {
		norm := GrowthToMultiplier(*actual)
		return model.Actual(norm, fmt.Sprintf("reported (normalized from %v)", *actual))
	}
	return model.Inferred(benchGrowth, "stage_benchmark")
}

// valuationMetric prefers the reported valuation, then the latest round's
// post-money, then the benchmark revenue multiple.
func (n *Normalizer) valuationMetric(actual *float64, rounds []model.FundingRound, bench benchmark.StageBenchmark, in RuleInput) model.Metric {
	benchValuation := bench.PreMoney + bench.RoundSize
	if actual != nil && plausible(*actual, benchValuation) {
		return model.Actual(*actual, "reported")
	}
	if len(rounds) > 0 {
		post := rounds[len(rounds)-1].PostMoney()
		if post > 0 {
			return model.Inferred(post, "latest_round_post_money")
		}
	}
	mult, notes := applyRules(n.rules, in)
	source := "stage_benchmark"
	if len(notes) > 0 {
		source += "; " + strings.Join(notes, "; ")
	}
	return model.Inferred(benchValuation*mult, source)
}

// totalRaisedMetric prefers the reported total, else sums round amounts.
func totalRaisedMetric(actual *float64, rounds []model.FundingRound) model.Metric {
	if actual != nil && *actual > 0 {
		return model.Actual(*actual, "reported")
	}
	var sum float64
	for _, r := range rounds {
		sum += r.Amount
	}
	return model.Inferred(sum, "sum_of_rounds")
}

// plausible reports whether an actual value passes the sanity gate:
// positive and not absurdly large relative to the stage benchmark.
func plausible(v, benchValue float64) bool {
	if v <= 0 {
		return false
	}
	if benchValue > 0 && v > benchValue*benchmark.PlausibilityCeiling {
		return false
	}
	return true
}

// parseRounds converts raw rounds into model rounds, resolving pre-money
// from post-money when needed and applying default terms. Validation of
// amounts is left to the ledger builder, which records rejections.
func (n *Normalizer) parseRounds(raws []model.RawRound) []model.FundingRound {
	rounds := make([]model.FundingRound, 0, len(raws))
	for i, rr := range raws {
		pre := 0.0
		switch {
		case rr.PreMoney != nil:
			pre = *rr.PreMoney
		case rr.PostMoney != nil:
			pre = *rr.PostMoney - rr.Amount
		}

		terms := model.DefaultTerms(i)
		if rr.LiquidationMultiple != nil && *rr.LiquidationMultiple > 0 {
			terms.LiquidationMultiple = *rr.LiquidationMultiple
		}
		if rr.Seniority != nil {
			terms.Seniority = *rr.Seniority
		}
		terms.Participating = rr.Participating
		terms.Convertible = rr.Convertible

		name := strings.TrimSpace(rr.Name)
		if name == "" {
			name = fmt.Sprintf("Round %d", i+1)
		}

		investors := make([]model.Investor, 0, len(rr.Investors))
		for _, inv := range rr.Investors {
			trimmed := strings.TrimSpace(inv.Name)
			if trimmed == "" {
				continue
			}
			investors = append(investors, model.Investor{
				Name:   titleCaser.String(trimmed),
				Amount: inv.Amount,
			})
		}

		rounds = append(rounds, model.FundingRound{
			Name:      name,
			Amount:    rr.Amount,
			PreMoney:  pre,
			Date:      parseDate(rr.Date),
			Investors: investors,
			Terms:     terms,
		})
	}
	return rounds
}

// parseDate tries the known layouts; unparseable dates become zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func lastRoundDate(rounds []model.FundingRound) time.Time {
	var last time.Time
	for _, r := range rounds {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return last
}

func investorNames(rounds []model.FundingRound) []string {
	var names []string
	for _, r := range rounds {
		for _, inv := range r.Investors {
			names = append(names, inv.Name)
		}
	}
	return names
}
