package waterfall

import "github.com/shopspring/decimal"

// stake is the resolver's working view of one holder.
type stake struct {
	name          string
	fraction      decimal.Decimal
	preference    decimal.Decimal // invested x liquidation multiple; zero for common
	seniority     int
	preferred     bool
	participating bool
}

// Result is the outcome of resolving one exit value against a snapshot.
type Result struct {
	// Payouts maps holder name to dollars received, rounded to cents.
	Payouts map[string]float64 `json:"payouts"`
	// TotalDistributed is the sum of all payouts.
	TotalDistributed float64 `json:"total_distributed"`
	// Converted lists non-participating preferred holders who did better
	// waiving their preference and converting to common.
	Converted []string `json:"converted,omitempty"`
	// PreferenceShortfall is true when the exit value could not satisfy
	// the full preference stack.
	PreferenceShortfall bool `json:"preference_shortfall,omitempty"`
}
