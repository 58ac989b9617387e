// Package model defines the shared data types for the valuation engine:
// company facts, funding rounds, cap-table snapshots, exit scenarios, and
// the analysis report that ties them together.
package model

import (
	"strings"
	"time"
)

// Stage identifies a company's financing stage.
type Stage string

const (
	StagePreSeed     Stage = "pre_seed"
	StageSeed        Stage = "seed"
	StageSeriesA     Stage = "series_a"
	StageSeriesB     Stage = "series_b"
	StageSeriesC     Stage = "series_c"
	StageSeriesD     Stage = "series_d"
	StageSeriesEPlus Stage = "series_e_plus"
)

// Stages lists all known stages in chronological order.
var Stages = []Stage{
	StagePreSeed, StageSeed, StageSeriesA, StageSeriesB,
	StageSeriesC, StageSeriesD, StageSeriesEPlus,
}

// stageAliases maps free-text stage labels to canonical stages.
var stageAliases = map[string]Stage{
	"pre_seed":      StagePreSeed,
	"preseed":       StagePreSeed,
	"pre-seed":      StagePreSeed,
	"angel":         StagePreSeed,
	"seed":          StageSeed,
	"series_a":      StageSeriesA,
	"series a":      StageSeriesA,
	"seriesa":       StageSeriesA,
	"a":             StageSeriesA,
	"series_b":      StageSeriesB,
	"series b":      StageSeriesB,
	"seriesb":       StageSeriesB,
	"b":             StageSeriesB,
	"series_c":      StageSeriesC,
	"series c":      StageSeriesC,
	"seriesc":       StageSeriesC,
	"c":             StageSeriesC,
	"series_d":      StageSeriesD,
	"series d":      StageSeriesD,
	"seriesd":       StageSeriesD,
	"d":             StageSeriesD,
	"series_e":      StageSeriesEPlus,
	"series e":      StageSeriesEPlus,
	"series_e_plus": StageSeriesEPlus,
	"series e+":     StageSeriesEPlus,
	"series_f":      StageSeriesEPlus,
	"series f":      StageSeriesEPlus,
	"series_g":      StageSeriesEPlus,
	"series g":      StageSeriesEPlus,
	"growth":        StageSeriesEPlus,
	"late":          StageSeriesEPlus,
}

// ParseStage resolves a free-text stage label to a canonical Stage.
// The second return value reports whether the label was recognized.
func ParseStage(s string) (Stage, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := stageAliases[key]; ok {
		return st, true
	}
	return "", false
}

// Ord returns the chronological index of the stage (pre_seed = 0).
func (s Stage) Ord() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Metric is a numeric fact with explicit provenance. Inferred values carry
// the chain of adjustments that produced them in Source.
type Metric struct {
	Value    float64 `json:"value"`
	Inferred bool    `json:"inferred"`
	Source   string  `json:"source"`
}

// Actual builds a Metric from an observed value.
func Actual(v float64, source string) Metric {
	return Metric{Value: v, Inferred: false, Source: source}
}

// Inferred builds a Metric from an estimated value.
func Inferred(v float64, source string) Metric {
	return Metric{Value: v, Inferred: true, Source: source}
}

// SecurityTerms captures the preference terms attached to a funding round.
type SecurityTerms struct {
	LiquidationMultiple float64 `json:"liquidation_multiple"`
	Seniority           int     `json:"seniority"`
	Participating       bool    `json:"participating"`
	Convertible         bool    `json:"convertible"`
}

// DefaultTerms returns standard 1x non-participating terms at the given
// seniority (lower = paid first).
func DefaultTerms(seniority int) SecurityTerms {
	return SecurityTerms{LiquidationMultiple: 1.0, Seniority: seniority}
}

// Investor is a named participant in a funding round. Amount is the stated
// contribution in dollars; zero means the split is unknown.
type Investor struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount,omitempty"`
}

// FundingRound is one financing event. Rounds are chronological and
// immutable once recorded.
type FundingRound struct {
	Name      string        `json:"name"`
	Amount    float64       `json:"amount"`
	PreMoney  float64       `json:"pre_money"`
	Date      time.Time     `json:"date"`
	Investors []Investor    `json:"investors,omitempty"`
	Terms     SecurityTerms `json:"terms"`
	Synthetic bool          `json:"synthetic,omitempty"`
}

// PostMoney returns pre-money valuation plus money raised.
func (r FundingRound) PostMoney() float64 {
	return r.PreMoney + r.Amount
}

// NewMoneyPct returns the ownership fraction purchased by the round's new
// money. Zero post-money yields zero.
func (r FundingRound) NewMoneyPct() float64 {
	post := r.PostMoney()
	if post <= 0 {
		return 0
	}
	return r.Amount / post
}

// CompanyFacts is the canonical, fully-populated financial state of one
// company. Every numeric field carries provenance; FundingRounds is never
// empty after normalization.
type CompanyFacts struct {
	Name          string         `json:"name"`
	Geography     string         `json:"geography,omitempty"`
	Stage         Stage          `json:"stage"`
	Revenue       Metric         `json:"revenue"`
	GrowthRate    Metric         `json:"growth_rate"` // annual multiplier, 1.0 = flat
	Valuation     Metric         `json:"valuation"`
	TotalRaised   Metric         `json:"total_raised"`
	FundingRounds []FundingRound `json:"funding_rounds"`
	LowConfidence bool           `json:"low_confidence,omitempty"`
}

// LatestRound returns the most recent funding round, or nil when the round
// history is empty.
func (f *CompanyFacts) LatestRound() *FundingRound {
	if len(f.FundingRounds) == 0 {
		return nil
	}
	return &f.FundingRounds[len(f.FundingRounds)-1]
}

// InferredFieldCount reports how many of the four core metrics were
// inferred rather than observed.
func (f *CompanyFacts) InferredFieldCount() (inferred, total int) {
	metrics := []Metric{f.Revenue, f.GrowthRate, f.Valuation, f.TotalRaised}
	for _, m := range metrics {
		if m.Inferred {
			inferred++
		}
	}
	return inferred, len(metrics)
}

// RawFacts is the partial company record consumed from the upstream
// fact-extraction subsystem. Only Stage carries any expectation of being
// present; everything else may be absent.
type RawFacts struct {
	Name          string     `json:"name"`
	Geography     string     `json:"geography,omitempty"`
	Stage         string     `json:"stage"`
	Revenue       *float64   `json:"revenue,omitempty"`
	GrowthRate    *float64   `json:"growth_rate,omitempty"`
	Valuation     *float64   `json:"valuation,omitempty"`
	TotalRaised   *float64   `json:"total_raised,omitempty"`
	FundingRounds []RawRound `json:"funding_rounds,omitempty"`
}

// RawRound is a funding round as reported upstream, before validation.
// Date accepts several common formats; missing terms take defaults.
type RawRound struct {
	Name                string     `json:"name"`
	Amount              float64    `json:"amount"`
	PreMoney            *float64   `json:"pre_money,omitempty"`
	PostMoney           *float64   `json:"post_money,omitempty"`
	Date                string     `json:"date,omitempty"`
	Investors           []Investor `json:"investors,omitempty"`
	LiquidationMultiple *float64   `json:"liquidation_multiple,omitempty"`
	Seniority           *int       `json:"seniority,omitempty"`
	Participating       bool       `json:"participating,omitempty"`
	Convertible         bool       `json:"convertible,omitempty"`
}
