package model

// Recommendation is the scorer's verdict.
type Recommendation string

const (
	RecommendInvest Recommendation = "INVEST"
	RecommendMaybe  Recommendation = "MAYBE"
	RecommendPass   Recommendation = "PASS"
	RecommendSkip   Recommendation = "SKIP"
)

// FundContext describes the evaluating fund. All fields are optional, but
// a nil FundSize forces a SKIP recommendation: a score computed against an
// unknown fund size is meaningless.
type FundContext struct {
	FundSize        *float64 `json:"fund_size,omitempty"`
	CheckSizeMin    float64  `json:"check_size_min,omitempty"`
	CheckSizeMax    float64  `json:"check_size_max,omitempty"`
	OwnershipTarget float64  `json:"ownership_target,omitempty"`
	IsLeadInvestor  bool     `json:"is_lead_investor,omitempty"`
	FundYear        int      `json:"fund_year,omitempty"`
	CurrentDPI      float64  `json:"current_dpi,omitempty"`
}

// Component score keys.
const (
	ComponentEntryValue            = "entry_value"
	ComponentGrowthTrajectory      = "growth_trajectory"
	ComponentFundReturnerPotential = "fund_returner_potential"
	ComponentOwnershipSufficiency  = "ownership_sufficiency"
)

// FundFitScore is the 0-100 suitability verdict for one position.
type FundFitScore struct {
	Overall            float64            `json:"overall"`
	Components         map[string]float64 `json:"components"`
	Recommendation     Recommendation     `json:"recommendation"`
	SuggestedCheckSize float64            `json:"suggested_check_size"`
}
