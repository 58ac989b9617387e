package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	table, err := benchmark.Default()
	require.NoError(t, err)
	n := New(table)
	n.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return n
}

func ptr(v float64) *float64 { return &v }

func TestNormalizeKeepsReportedValues(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	facts := n.Normalize(model.RawFacts{
		Name:        "Acme Robotics",
		Stage:       "seed",
		Revenue:     ptr(800_000),
		GrowthRate:  ptr(2.5),
		Valuation:   ptr(12_000_000),
		TotalRaised: ptr(3_000_000),
	})

	assert.Equal(t, model.StageSeed, facts.Stage)
	assert.False(t, facts.LowConfidence)

	assert.False(t, facts.Revenue.Inferred)
	assert.Equal(t, 800_000.0, facts.Revenue.Value)
	assert.Equal(t, "reported", facts.Revenue.Source)

	assert.False(t, facts.GrowthRate.Inferred)
	assert.Equal(t, 2.5, facts.GrowthRate.Value)

	assert.False(t, facts.Valuation.Inferred)
	assert.False(t, facts.TotalRaised.Inferred)
}

func TestNormalizeInfersMissingRevenue(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	facts := n.Normalize(model.RawFacts{Name: "Stealthy", Stage: "seed"})

	require.True(t, facts.Revenue.Inferred)
	assert.Contains(t, facts.Revenue.Source, "stage_benchmark")
	// Synthesized rounds put the last raise ~6 months back, so the
	// time-since-round rule compounds the estimate above the raw benchmark.
	assert.Contains(t, facts.Revenue.Source, "time_since_last_round")
	assert.Greater(t, facts.Revenue.Value, 500_000.0)
}

func TestNormalizeUnknownStageDefaultsToSeed(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	facts := n.Normalize(model.RawFacts{Name: "Mystery Co", Stage: "bridge round"})

	assert.Equal(t, model.StageSeed, facts.Stage)
	assert.True(t, facts.LowConfidence)
}

func TestNormalizeImplausibleRevenueReplaced(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	// 100M revenue at seed is 200x the benchmark, beyond the ceiling.
	facts := n.Normalize(model.RawFacts{
		Name:    "Fantasy Inc",
		Stage:   "seed",
		Revenue: ptr(100_000_000),
	})

	assert.True(t, facts.Revenue.Inferred)
	assert.Less(t, facts.Revenue.Value, 100_000_000.0)
}

func TestNormalizeValuationFromLatestRound(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	facts := n.Normalize(model.RawFacts{
		Name:  "Roundabout",
		Stage: "seed",
		FundingRounds: []model.RawRound{
			{Name: "Seed", Amount: 2_000_000, PreMoney: ptr(8_000_000), Date: "2025-11-01"},
		},
	})

	require.True(t, facts.Valuation.Inferred)
	assert.Equal(t, "latest_round_post_money", facts.Valuation.Source)
	assert.Equal(t, 10_000_000.0, facts.Valuation.Value)

	assert.True(t, facts.TotalRaised.Inferred)
	assert.Equal(t, 2_000_000.0, facts.TotalRaised.Value)
	assert.Equal(t, "sum_of_rounds", facts.TotalRaised.Source)
}

func TestNormalizeReconcilesValuationWithRounds(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	// A reported valuation wildly above the latest round's post-money is
	// downgraded to the round-implied value and flagged.
	facts := n.Normalize(model.RawFacts{
		Name:      "Overclaimed",
		Stage:     "seed",
		Valuation: ptr(100_000_000),
		FundingRounds: []model.RawRound{
			{Name: "Seed", Amount: 500_000, PreMoney: ptr(6_640_000), Date: "2025-12-01"},
		},
	})

	require.True(t, facts.Valuation.Inferred)
	assert.InDelta(t, 7_140_000, facts.Valuation.Value, 1e-6)
	assert.Contains(t, facts.Valuation.Source, "latest_round_post_money")
	assert.Contains(t, facts.Valuation.Source, "reported_valuation_inconsistent")
	assert.True(t, facts.LowConfidence)

	// Rounds stay as reported; only the valuation is reconciled.
	require.Len(t, facts.FundingRounds, 1)
	assert.Equal(t, 6_640_000.0, facts.FundingRounds[0].PreMoney)

	// Within tolerance the reported valuation is kept verbatim.
	facts = n.Normalize(model.RawFacts{
		Name:      "Marked Up",
		Stage:     "seed",
		Valuation: ptr(9_000_000),
		FundingRounds: []model.RawRound{
			{Name: "Seed", Amount: 500_000, PreMoney: ptr(6_640_000), Date: "2025-12-01"},
		},
	})

	assert.False(t, facts.Valuation.Inferred)
	assert.Equal(t, 9_000_000.0, facts.Valuation.Value)
	assert.False(t, facts.LowConfidence)
}

func TestNormalizeSynthesizesRoundHistory(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	facts := n.Normalize(model.RawFacts{
		Name:      "From Scratch",
		Stage:     "series_a",
		Valuation: ptr(50_000_000),
	})

	require.Len(t, facts.FundingRounds, 3)
	assert.Equal(t, "Pre Seed", facts.FundingRounds[0].Name)
	assert.Equal(t, "Seed", facts.FundingRounds[1].Name)
	assert.Equal(t, "Series A", facts.FundingRounds[2].Name)

	for i, r := range facts.FundingRounds {
		assert.True(t, r.Synthetic, "round %d", i)
		assert.Equal(t, i, r.Terms.Seniority, "round %d", i)
		assert.Equal(t, 1.0, r.Terms.LiquidationMultiple, "round %d", i)
		if i > 0 {
			assert.True(t, r.Date.After(facts.FundingRounds[i-1].Date))
		}
	}

	// The final round's post-money is anchored to the known valuation.
	last := facts.LatestRound()
	assert.InDelta(t, 50_000_000, last.PostMoney(), 1e-6)
}

func TestParseRoundsResolvesPreFromPost(t *testing.T) {
	t.Parallel()
	n := testNormalizer(t)

	rounds := n.parseRounds([]model.RawRound{
		{
			Name:      "seed",
			Amount:    3_000_000,
			PostMoney: ptr(15_000_000),
			Date:      "March 2024",
			Investors: []model.Investor{{Name: "acme ventures", Amount: 2_000_000}},
		},
		{Amount: 1_000_000},
	})

	require.Len(t, rounds, 2)
	assert.Equal(t, 12_000_000.0, rounds[0].PreMoney)
	assert.Equal(t, "Acme Ventures", rounds[0].Investors[0].Name)
	assert.False(t, rounds[0].Date.IsZero())

	// Unnamed rounds get positional names; missing dates become zero time.
	assert.Equal(t, "Round 2", rounds[1].Name)
	assert.True(t, rounds[1].Date.IsZero())
	assert.Equal(t, 1, rounds[1].Terms.Seniority)
}

func TestGrowthToMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"percentage", 50, 1.5},
		{"large percentage", 300, 4.0},
		{"fraction", 0.5, 1.5},
		{"already multiplier", 2.5, 2.5},
		{"flat multiplier", 1.0, 1.0},
		{"zero", 0, 1.0},
		{"negative", -0.3, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GrowthToMultiplier(tt.in), 1e-9)
		})
	}
}

func TestAdjustmentRules(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("notable investor and hub premium", func(t *testing.T) {
		mult, notes := applyRules(DefaultRules, RuleInput{
			Stage:     "seed",
			Now:       now,
			Investors: []string{"Sequoia Capital"},
			Geography: "San Francisco",
		})
		assert.InDelta(t, 1.2*1.15, mult, 1e-9)
		assert.Len(t, notes, 2)
	})

	t.Run("time since round compounds growth", func(t *testing.T) {
		mult, notes := applyRules(DefaultRules, RuleInput{
			Stage:            "seed",
			GrowthMultiplier: 2.0,
			LastRoundDate:    now.AddDate(-1, 0, 0),
			Now:              now,
		})
		// One year at 2x annual growth.
		assert.InDelta(t, 2.0, mult, 0.02)
		assert.Len(t, notes, 1)
	})

	t.Run("stale dates capped at five years", func(t *testing.T) {
		capped, _ := applyRules(DefaultRules, RuleInput{
			GrowthMultiplier: 2.0,
			LastRoundDate:    now.AddDate(-20, 0, 0),
			Now:              now,
		})
		assert.InDelta(t, 32.0, capped, 0.1) // 2^5
	})

	t.Run("no signals no adjustment", func(t *testing.T) {
		mult, notes := applyRules(DefaultRules, RuleInput{Stage: "seed", Now: now})
		assert.Equal(t, 1.0, mult)
		assert.Empty(t, notes)
	})
}
