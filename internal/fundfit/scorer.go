// Package fundfit scores how well an evaluated position suits a specific
// fund: entry price, growth trajectory, fund-returner potential, and
// achievable ownership, combined into a 0-100 verdict.
package fundfit

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/config"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// Scorer computes fund-fit scores from valuation output and fund context.
type Scorer struct {
	cfg   config.ScorerConfig
	table *benchmark.Table
}

// New creates a Scorer with the given weights and benchmark table.
func New(cfg config.ScorerConfig, table *benchmark.Table) *Scorer {
	return &Scorer{cfg: cfg, table: table}
}

// Score combines the four component scores under the configured weights.
// A missing fund size is a hard SKIP: any score computed against an
// unknown fund size is meaningless.
func (s *Scorer) Score(
	summary model.ValuationSummary,
	facts model.CompanyFacts,
	final *model.CapTableSnapshot,
	fund model.FundContext,
) model.FundFitScore {
	if fund.FundSize == nil || *fund.FundSize <= 0 {
		zap.L().Info("fundfit: no fund size, skipping score", zap.String("company", facts.Name))
		return model.FundFitScore{
			Components:     map[string]float64{},
			Recommendation: model.RecommendSkip,
		}
	}
	fundSize := *fund.FundSize

	check := s.suggestedCheck(facts.Stage, fundSize, fund)

	components := map[string]float64{
		model.ComponentEntryValue:            s.scoreEntryValue(facts),
		model.ComponentGrowthTrajectory:      scoreGrowthTrajectory(facts),
		model.ComponentFundReturnerPotential: scoreFundReturner(summary.BullProceeds(), fundSize),
		model.ComponentOwnershipSufficiency:  scoreOwnership(check, final, fund.OwnershipTarget),
	}

	weights := map[string]float64{
		model.ComponentEntryValue:            s.cfg.EntryValueWeight,
		model.ComponentGrowthTrajectory:      s.cfg.GrowthWeight,
		model.ComponentFundReturnerPotential: s.cfg.FundReturnerWeight,
		model.ComponentOwnershipSufficiency:  s.cfg.OwnershipWeight,
	}

	var weightSum, total float64
	for k, w := range weights {
		weightSum += w
		total += components[k] * w
	}
	if weightSum > 0 {
		total /= weightSum
	}
	total = math.Round(total*100) / 100

	score := model.FundFitScore{
		Overall:            total,
		Components:         components,
		Recommendation:     s.recommend(total),
		SuggestedCheckSize: check,
	}

	zap.L().Info("fundfit: scored position",
		zap.String("company", facts.Name),
		zap.Float64("overall", score.Overall),
		zap.String("recommendation", string(score.Recommendation)),
		zap.Float64("suggested_check", check),
	)

	return score
}

func (s *Scorer) recommend(overall float64) model.Recommendation {
	switch {
	case overall >= s.cfg.InvestThreshold:
		return model.RecommendInvest
	case overall >= s.cfg.MaybeThreshold:
		return model.RecommendMaybe
	default:
		return model.RecommendPass
	}
}

// suggestedCheck sizes the position against the fund: stage-appropriate
// allocation percentage, lead-investor multiplier, clamped to the fund's
// check-size range.
func (s *Scorer) suggestedCheck(stage model.Stage, fundSize float64, fund model.FundContext) float64 {
	pct := s.cfg.StageCheckPct[string(stage)]
	if pct <= 0 {
		pct = 0.02
	}
	check := fundSize * pct
	if fund.IsLeadInvestor && s.cfg.LeadMultiplier > 0 {
		check *= s.cfg.LeadMultiplier
	}
	if fund.CheckSizeMin > 0 && check < fund.CheckSizeMin {
		check = fund.CheckSizeMin
	}
	if fund.CheckSizeMax > 0 && check > fund.CheckSizeMax {
		check = fund.CheckSizeMax
	}
	return math.Round(check)
}

// scoreEntryValue penalizes high revenue-multiple entries relative to the
// stage norm. An expensive entry scores low even with strong growth.
func (s *Scorer) scoreEntryValue(facts model.CompanyFacts) float64 {
	if facts.Revenue.Value <= 0 {
		return 50 // neutral when no revenue basis
	}
	revMultiple := facts.Valuation.Value / facts.Revenue.Value
	benchMultiple := s.table.ForStage(facts.Stage).ValuationMultiple
	if benchMultiple <= 0 {
		return 50
	}
	ratio := revMultiple / benchMultiple
	switch {
	case ratio <= 0.5:
		return 100
	case ratio <= 1.0:
		return 85
	case ratio <= 1.5:
		return 70
	case ratio <= 2.0:
		return 55
	case ratio <= 3.0:
		return 40
	case ratio <= 5.0:
		return 20
	default:
		return 5
	}
}

// scoreGrowthTrajectory rewards sustained or accelerating growth. When at
// least three dated rounds exist, the two most recent implied valuation
// growth rates are compared for acceleration; otherwise the normalized
// annual growth multiplier alone drives the score.
func scoreGrowthTrajectory(facts model.CompanyFacts) float64 {
	base := growthMultiplierScore(facts.GrowthRate.Value)

	recent, previous, ok := impliedRoundGrowth(facts.FundingRounds)
	if !ok {
		return base
	}
	switch {
	case recent > previous*1.1:
		base = math.Min(base+10, 100) // accelerating
	case recent < previous*0.9:
		base = math.Max(base-15, 0) // decelerating
	}
	return base
}

func growthMultiplierScore(mult float64) float64 {
	switch {
	case mult >= 3.0:
		return 100
	case mult >= 2.0:
		return 85
	case mult >= 1.5:
		return 70
	case mult >= 1.2:
		return 55
	case mult >= 1.0:
		return 40
	default:
		return 20
	}
}

// impliedRoundGrowth derives annualized valuation growth from the last
// three dated rounds: (recent pair, previous pair).
func impliedRoundGrowth(rounds []model.FundingRound) (recent, previous float64, ok bool) {
	var dated []model.FundingRound
	for _, r := range rounds {
		if !r.Date.IsZero() && r.PostMoney() > 0 {
			dated = append(dated, r)
		}
	}
	if len(dated) < 3 {
		return 0, 0, false
	}
	sort.Slice(dated, func(i, j int) bool { return dated[i].Date.Before(dated[j].Date) })
	n := len(dated)
	recent = annualizedGrowth(dated[n-2], dated[n-1])
	previous = annualizedGrowth(dated[n-3], dated[n-2])
	if recent <= 0 || previous <= 0 {
		return 0, 0, false
	}
	return recent, previous, true
}

func annualizedGrowth(from, to model.FundingRound) float64 {
	years := to.Date.Sub(from.Date).Hours() / 24 / 365.25
	if years <= 0 || from.PostMoney() <= 0 {
		return 0
	}
	return math.Pow(to.PostMoney()/from.PostMoney(), 1/years)
}

// scoreFundReturner asks whether the bull-case proceeds can return a
// meaningful fraction of the fund.
func scoreFundReturner(bullProceeds, fundSize float64) float64 {
	if fundSize <= 0 {
		return 0
	}
	ratio := bullProceeds / fundSize
	switch {
	case ratio >= 1.0:
		return 100
	case ratio >= 0.5:
		return 85
	case ratio >= 0.33:
		return 70
	case ratio >= 0.2:
		return 55
	case ratio >= 0.1:
		return 40
	case ratio >= 0.05:
		return 25
	default:
		return 10
	}
}

// scoreOwnership compares the ownership achievable with the suggested
// check against the fund's target. No stated target scores neutral.
func scoreOwnership(check float64, final *model.CapTableSnapshot, target float64) float64 {
	if target <= 0 {
		return 70
	}
	if final == nil || final.PostMoney <= 0 || check <= 0 {
		return 0
	}
	achievable := check / (final.PostMoney + check)
	return math.Min(achievable/target, 1.0) * 100
}
