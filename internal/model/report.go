package model

import "time"

// AnalysisReport is the full output of one company's pipeline run: the
// cap-table history, the scenario valuation, the fund-fit score, and a
// confidence indicator derived from how many fields were inferred.
type AnalysisReport struct {
	RunID          string             `json:"run_id"`
	Company        string             `json:"company"`
	Facts          CompanyFacts       `json:"facts"`
	CapTable       []CapTableSnapshot `json:"cap_table"`
	RejectedRounds []RejectedRound    `json:"rejected_rounds,omitempty"`
	Position       InvestorPosition   `json:"position"`
	Valuation      ValuationSummary   `json:"valuation"`
	FundFit        FundFitScore       `json:"fund_fit"`
	Confidence     float64            `json:"confidence"`
	Phases         []PhaseTiming      `json:"phases,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// PhaseTiming records one pipeline phase's outcome for the report.
type PhaseTiming struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	RunID          string         `json:"run_id"`
	Company        string         `json:"company"`
	Stage          Stage          `json:"stage"`
	Recommendation Recommendation `json:"recommendation"`
	ExpectedMOIC   float64        `json:"expected_moic"`
	CreatedAt      time.Time      `json:"created_at"`
}
