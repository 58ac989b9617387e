package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// AdjustmentRule is one named, pure multiplier applied to a stage benchmark
// when inferring a missing value. Rules run in the fixed order of the
// DefaultRules slice; each returns the multiplier and a short note used to
// build the provenance string.
type AdjustmentRule struct {
	Name  string
	Apply func(in RuleInput) (multiplier float64, note string)
}

// RuleInput is the read-only context an adjustment rule sees.
type RuleInput struct {
	Stage            string
	GrowthMultiplier float64 // stage benchmark annual growth
	LastRoundDate    time.Time
	Now              time.Time
	Investors        []string
	Geography        string
}

// notableInvestors are nationally-recognized lead investors whose presence
// shifts the benchmark estimate upward.
var notableInvestors = map[string]bool{
	"sequoia":         true,
	"sequoia capital": true,
	"andreessen horowitz": true,
	"a16z":            true,
	"benchmark":       true,
	"accel":           true,
	"greylock":        true,
	"lightspeed":      true,
	"index ventures":  true,
	"founders fund":   true,
	"kleiner perkins": true,
	"bessemer":        true,
	"insight partners": true,
	"tiger global":    true,
	"general catalyst": true,
	"khosla ventures": true,
	"y combinator":    true,
}

// techHubs are geographies that carry a premium multiplier.
var techHubs = map[string]bool{
	"san francisco": true,
	"sf":            true,
	"bay area":      true,
	"silicon valley": true,
	"new york":      true,
	"nyc":           true,
	"london":        true,
	"boston":        true,
	"seattle":       true,
	"tel aviv":      true,
	"singapore":     true,
}

const (
	notableInvestorMultiplier = 1.2
	techHubMultiplier         = 1.15
)

// DefaultRules is the ordered adjustment chain applied to benchmark values.
var DefaultRules = []AdjustmentRule{
	{Name: "time_since_last_round", Apply: timeSinceLastRound},
	{Name: "notable_investor", Apply: notableInvestor},
	{Name: "geography_hub", Apply: geographyHub},
}

// timeSinceLastRound compounds the stage's typical annual growth over the
// months elapsed since the last round.
func timeSinceLastRound(in RuleInput) (float64, string) {
	if in.LastRoundDate.IsZero() || in.GrowthMultiplier <= 0 {
		return 1.0, ""
	}
	months := in.Now.Sub(in.LastRoundDate).Hours() / 24 / 30.44
	if months <= 0 {
		return 1.0, ""
	}
	// Cap at 5 years of compounding so stale dates stay sane.
	if months > 60 {
		months = 60
	}
	m := math.Pow(in.GrowthMultiplier, months/12)
	return m, fmt.Sprintf("time_since_last_round x%.2f (%.0f months)", m, months)
}

// notableInvestor applies a fixed premium when any recognized lead investor
// appears in the round history.
func notableInvestor(in RuleInput) (float64, string) {
	for _, name := range in.Investors {
		if notableInvestors[strings.ToLower(strings.TrimSpace(name))] {
			return notableInvestorMultiplier, fmt.Sprintf("notable_investor x%.2f (%s)", notableInvestorMultiplier, name)
		}
	}
	return 1.0, ""
}

// geographyHub applies a fixed premium for major tech hubs.
func geographyHub(in RuleInput) (float64, string) {
	if techHubs[strings.ToLower(strings.TrimSpace(in.Geography))] {
		return techHubMultiplier, fmt.Sprintf("geography_hub x%.2f (%s)", techHubMultiplier, in.Geography)
	}
	return 1.0, ""
}

// applyRules runs the rule chain in order and returns the combined
// multiplier plus the provenance notes of the rules that fired.
func applyRules(rules []AdjustmentRule, in RuleInput) (float64, []string) {
	combined := 1.0
	var notes []string
	for _, r := range rules {
		m, note := r.Apply(in)
		if m <= 0 {
			m = 1.0
		}
		combined *= m
		if note != "" {
			notes = append(notes, note)
		}
	}
	return combined, notes
}
