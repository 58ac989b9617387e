package model

// ExitType classifies how a scenario ends.
type ExitType string

const (
	ExitAcquisition ExitType = "acquisition"
	ExitIPO         ExitType = "ipo"
	ExitShutdown    ExitType = "shutdown"
	ExitNone        ExitType = "none"
)

// ExitScenario is one discrete exit outcome with an assigned probability.
// All scenarios in a run sum to 1.0 (renormalized when they do not).
type ExitScenario struct {
	Name            string   `json:"name"`
	Probability     float64  `json:"probability"`
	ExitValue       float64  `json:"exit_value"`
	TimeToExitYears float64  `json:"time_to_exit_years"`
	ExitType        ExitType `json:"exit_type"`
}

// InvestorPosition is the prospective position being evaluated. The entry
// investment is modeled into the latest round; FollowOnAmount, when set,
// is deployed at each scenario's interpolated intermediate valuation.
type InvestorPosition struct {
	InvestmentAmount  float64 `json:"investment_amount"`
	FollowOnAmount    float64 `json:"follow_on_amount,omitempty"`
	EntryOwnershipPct float64 `json:"entry_ownership_pct"` // computed at entry
}

// TotalInvested returns entry plus follow-on capital.
func (p InvestorPosition) TotalInvested() float64 {
	return p.InvestmentAmount + p.FollowOnAmount
}

// ScenarioResult is the waterfall outcome of one scenario for the position.
type ScenarioResult struct {
	Scenario                   ExitScenario `json:"scenario"`
	Proceeds                   float64      `json:"proceeds"`
	MOIC                       float64      `json:"moic"`
	IRR                        float64      `json:"irr"`
	ExitOwnershipPct           float64      `json:"exit_ownership_pct"`
	BelowLiquidationPreference bool         `json:"below_liquidation_preference"`
}

// ValuationSummary aggregates per-scenario results into probability-weighted
// return metrics for the position.
type ValuationSummary struct {
	Results           []ScenarioResult `json:"results"`
	EntryOwnershipPct float64          `json:"entry_ownership_pct"`
	ExpectedMOIC      float64          `json:"expected_moic"`
	ExpectedIRR       float64          `json:"expected_irr"`
	TotalInvested     float64          `json:"total_invested"`
	Renormalized      bool             `json:"renormalized,omitempty"`
	LowConfidence     bool             `json:"low_confidence,omitempty"`
}

// BullProceeds returns the proceeds of the highest-exit-value scenario,
// used by the fund-fit scorer's fund-returner component.
func (v *ValuationSummary) BullProceeds() float64 {
	var best float64
	var proceeds float64
	for _, r := range v.Results {
		if r.Scenario.ExitValue >= best {
			best = r.Scenario.ExitValue
			proceeds = r.Proceeds
		}
	}
	return proceeds
}
