package captable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

func round(name string, amount, preMoney float64, seniority int, investors ...model.Investor) model.FundingRound {
	return model.FundingRound{
		Name:      name,
		Amount:    amount,
		PreMoney:  preMoney,
		Investors: investors,
		Terms:     model.DefaultTerms(seniority),
	}
}

func TestBuildSingleRound(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Seed", 2_000_000, 8_000_000, 0),
	}, 0.10)
	require.NoError(t, err)
	require.Len(t, ledger.Snapshots, 1)

	snap := ledger.Final()
	assert.True(t, snap.Balanced())
	assert.Equal(t, 10_000_000.0, snap.PostMoney)

	// Pool carved pre-money, then everyone diluted 20% by the new money.
	assert.InDelta(t, 0.90*0.80, snap.Holders[model.HolderFounders].Fraction, 1e-9)
	assert.InDelta(t, 0.10*0.80, snap.Holders[model.HolderEmployees].Fraction, 1e-9)
	assert.InDelta(t, 0.20, snap.Holders["Seed Investors"].Fraction, 1e-9)
	assert.Equal(t, 2_000_000.0, snap.Holders["Seed Investors"].Invested)
}

func TestBuildEverySnapshotBalanced(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Pre-Seed", 750_000, 3_500_000, 0),
		round("Seed", 2_500_000, 10_000_000, 1),
		round("Series A", 10_000_000, 40_000_000, 2),
	}, 0.15)
	require.NoError(t, err)
	require.Len(t, ledger.Snapshots, 3)

	for _, snap := range ledger.Snapshots {
		assert.True(t, snap.Balanced(), "round %s sums to %v", snap.RoundName, snap.FractionSum())
	}
}

func TestBuildFounderDilutionMonotonic(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Pre-Seed", 750_000, 3_500_000, 0),
		round("Seed", 2_500_000, 10_000_000, 1),
		round("Series A", 10_000_000, 40_000_000, 2),
		round("Series B", 25_000_000, 100_000_000, 3),
	}, 0.10)
	require.NoError(t, err)

	prev := 1.0
	for _, snap := range ledger.Snapshots {
		cur := snap.Holders[model.HolderFounders].Fraction
		assert.Less(t, cur, prev, "round %s", snap.RoundName)
		prev = cur
	}
}

func TestBuildRejectsInvalidRounds(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Broken", 0, 5_000_000, 0),
		round("Negative", 1_000_000, -1, 1),
		round("Seed", 2_000_000, 8_000_000, 2),
	}, 0.10)
	require.NoError(t, err)

	require.Len(t, ledger.Rejected, 2)
	assert.Equal(t, 0, ledger.Rejected[0].Index)
	assert.Equal(t, "Broken", ledger.Rejected[0].Name)
	assert.Equal(t, 1, ledger.Rejected[1].Index)

	// The valid round still lands, with the pool carved on it since it is
	// the first accepted one.
	require.Len(t, ledger.Snapshots, 1)
	assert.Contains(t, ledger.Snapshots[0].Holders, model.HolderEmployees)
}

func TestBuildNamedInvestorSplit(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Seed", 3_000_000, 9_000_000, 0,
			model.Investor{Name: "Alpha Fund", Amount: 2_000_000},
			model.Investor{Name: "Beta Fund", Amount: 1_000_000},
		),
	}, 0)
	require.NoError(t, err)

	snap := ledger.Final()
	// New money buys 25%; split 2:1 by stated contribution.
	alpha := snap.Holders["Alpha Fund"]
	beta := snap.Holders["Beta Fund"]
	assert.InDelta(t, 0.25*2.0/3.0, alpha.Fraction, 1e-9)
	assert.InDelta(t, 0.25*1.0/3.0, beta.Fraction, 1e-9)
	assert.InDelta(t, 2_000_000, alpha.Invested, 1e-6)
	assert.InDelta(t, 1_000_000, beta.Invested, 1e-6)
}

func TestBuildRepeatInvestorAccumulates(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Seed", 2_000_000, 8_000_000, 0, model.Investor{Name: "Alpha Fund"}),
		round("Series A", 10_000_000, 40_000_000, 1, model.Investor{Name: "Alpha Fund"}),
	}, 0)
	require.NoError(t, err)

	alpha := ledger.Final().Holders["Alpha Fund"]
	assert.InDelta(t, 12_000_000, alpha.Invested, 1e-6)
	// Seed 20% diluted to 16% by the A, plus the A's fresh 20%.
	assert.InDelta(t, 0.20*0.80+0.20, alpha.Fraction, 1e-9)
	// Terms stay those of the first entry round.
	require.NotNil(t, alpha.Terms)
	assert.Equal(t, 0, alpha.Terms.Seniority)
}

func TestBuildEqualSplitWhenAmountsUnknown(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Seed", 2_000_000, 8_000_000, 0,
			model.Investor{Name: "Alpha Fund"},
			model.Investor{Name: "Beta Fund"},
		),
	}, 0)
	require.NoError(t, err)

	snap := ledger.Final()
	assert.InDelta(t, 0.10, snap.Holders["Alpha Fund"].Fraction, 1e-9)
	assert.InDelta(t, 0.10, snap.Holders["Beta Fund"].Fraction, 1e-9)
}

func TestBuildEmptyHistory(t *testing.T) {
	t.Parallel()

	ledger, err := Build(nil, 0.10)
	require.NoError(t, err)
	assert.Nil(t, ledger.Final())
	assert.Empty(t, ledger.Snapshots)
}

func TestBuildIgnoresBadPoolPct(t *testing.T) {
	t.Parallel()

	ledger, err := Build([]model.FundingRound{
		round("Seed", 2_000_000, 8_000_000, 0),
	}, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ledger.OptionPoolPct)
	assert.NotContains(t, ledger.Final().Holders, model.HolderEmployees)
}
