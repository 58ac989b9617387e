package waterfall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

func snapshot(holders map[string]model.Holding) *model.CapTableSnapshot {
	return &model.CapTableSnapshot{
		RoundName: "Test",
		PostMoney: 10_000_000,
		Holders:   holders,
	}
}

func preferred(fraction, invested float64, seniority int, participating bool) model.Holding {
	terms := model.DefaultTerms(seniority)
	terms.Participating = participating
	return model.Holding{Fraction: fraction, Invested: invested, Terms: &terms}
}

func common(fraction float64) model.Holding {
	return model.Holding{Fraction: fraction}
}

func TestResolveConversionOption(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.80),
		"Seed":     preferred(0.20, 2_000_000, 0, false),
	})

	t.Run("low exit takes the preference", func(t *testing.T) {
		res, err := Resolve(snap, 5_000_000)
		require.NoError(t, err)

		assert.InDelta(t, 2_000_000, res.Payouts["Seed"], 0.01)
		assert.InDelta(t, 3_000_000, res.Payouts["Founders"], 0.01)
		assert.Empty(t, res.Converted)
	})

	t.Run("high exit converts to common", func(t *testing.T) {
		res, err := Resolve(snap, 50_000_000)
		require.NoError(t, err)

		assert.InDelta(t, 10_000_000, res.Payouts["Seed"], 0.01)
		assert.InDelta(t, 40_000_000, res.Payouts["Founders"], 0.01)
		assert.Equal(t, []string{"Seed"}, res.Converted)
	})
}

func TestResolveParticipatingDoubleDip(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.80),
		"Seed":     preferred(0.20, 2_000_000, 0, true),
	})

	res, err := Resolve(snap, 12_000_000)
	require.NoError(t, err)

	// Preference first, then 20% of the 10M residual on top.
	assert.InDelta(t, 4_000_000, res.Payouts["Seed"], 0.01)
	assert.InDelta(t, 8_000_000, res.Payouts["Founders"], 0.01)
	assert.Empty(t, res.Converted)
}

func TestResolveSeniorityOrder(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.50),
		"Series A": preferred(0.30, 3_000_000, 0, false),
		"Seed":     preferred(0.20, 2_000_000, 1, false),
	})

	// 4M covers the senior A in full, leaves 1M for the junior seed,
	// nothing for common.
	res, err := Resolve(snap, 4_000_000)
	require.NoError(t, err)

	assert.InDelta(t, 3_000_000, res.Payouts["Series A"], 0.01)
	assert.InDelta(t, 1_000_000, res.Payouts["Seed"], 0.01)
	assert.InDelta(t, 0, res.Payouts["Founders"], 0.01)
	assert.True(t, res.PreferenceShortfall)
	assert.InDelta(t, 4_000_000, res.TotalDistributed, 0.01)
}

func TestResolveIntraLevelProRating(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.60),
		"Alpha":    preferred(0.25, 3_000_000, 0, false),
		"Beta":     preferred(0.15, 1_000_000, 0, false),
	})

	// 2M against a 4M same-seniority level: pro-rated 3:1.
	res, err := Resolve(snap, 2_000_000)
	require.NoError(t, err)

	assert.InDelta(t, 1_500_000, res.Payouts["Alpha"], 0.01)
	assert.InDelta(t, 500_000, res.Payouts["Beta"], 0.01)
	assert.True(t, res.PreferenceShortfall)
}

func TestResolveConservation(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders":  common(0.55),
		"Employees": common(0.10),
		"Seed":      preferred(0.15, 2_000_000, 1, false),
		"Series A":  preferred(0.20, 10_000_000, 0, true),
	})

	for _, exit := range []float64{0, 1_000_000, 15_000_000, 80_000_000, 500_000_000} {
		res, err := Resolve(snap, exit)
		require.NoError(t, err)

		var sum float64
		for _, p := range res.Payouts {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, res.TotalDistributed, sum, 0.01, "exit %v", exit)
		assert.LessOrEqual(t, res.TotalDistributed, exit+0.01, "exit %v", exit)
	}
}

func TestResolveZeroExit(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.80),
		"Seed":     preferred(0.20, 2_000_000, 0, false),
	})

	res, err := Resolve(snap, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.TotalDistributed)
	assert.True(t, res.PreferenceShortfall)
}

func TestResolveLiquidationMultiple(t *testing.T) {
	t.Parallel()

	terms := model.SecurityTerms{LiquidationMultiple: 2.0, Seniority: 0}
	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.80),
		"Seed":     {Fraction: 0.20, Invested: 2_000_000, Terms: &terms},
	})

	res, err := Resolve(snap, 6_000_000)
	require.NoError(t, err)

	// 2x multiple doubles the preference claim to 4M.
	assert.InDelta(t, 4_000_000, res.Payouts["Seed"], 0.01)
	assert.InDelta(t, 2_000_000, res.Payouts["Founders"], 0.01)
}

func TestResolveRejectsUnbalancedSnapshot(t *testing.T) {
	t.Parallel()

	_, err := Resolve(snapshot(map[string]model.Holding{
		"Founders": common(0.50),
	}), 1_000_000)
	assert.Error(t, err)

	_, err = Resolve(nil, 1_000_000)
	assert.Error(t, err)
}

func TestSeniorPreferenceAhead(t *testing.T) {
	t.Parallel()

	snap := snapshot(map[string]model.Holding{
		"Founders": common(0.50),
		"Series A": preferred(0.30, 3_000_000, 0, false),
		"Seed":     preferred(0.20, 2_000_000, 1, false),
	})

	assert.InDelta(t, 3_000_000, SeniorPreferenceAhead(snap, "Seed"), 0.01)
	assert.Equal(t, 0.0, SeniorPreferenceAhead(snap, "Series A"))
	assert.Equal(t, 0.0, SeniorPreferenceAhead(snap, "Founders"))

	assert.InDelta(t, 5_000_000, TotalPreference(snap), 0.01)
}
