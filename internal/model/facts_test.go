package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Stage
		ok   bool
	}{
		{"seed", StageSeed, true},
		{"Seed", StageSeed, true},
		{"  SERIES A ", StageSeriesA, true},
		{"series-a", "", false},
		{"pre-seed", StagePreSeed, true},
		{"angel", StagePreSeed, true},
		{"Series F", StageSeriesEPlus, true},
		{"growth", StageSeriesEPlus, true},
		{"ipo", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStage(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStageOrd(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, StagePreSeed.Ord())
	assert.Equal(t, 2, StageSeriesA.Ord())
	assert.Equal(t, 6, StageSeriesEPlus.Ord())
	assert.Equal(t, -1, Stage("unknown").Ord())

	// Chronological ordering holds across the whole list.
	for i := 1; i < len(Stages); i++ {
		assert.Greater(t, Stages[i].Ord(), Stages[i-1].Ord())
	}
}

func TestMetricProvenance(t *testing.T) {
	t.Parallel()

	actual := Actual(1_000_000, "reported")
	assert.False(t, actual.Inferred)
	assert.Equal(t, "reported", actual.Source)

	inferred := Inferred(150_000, "stage_benchmark")
	assert.True(t, inferred.Inferred)
	assert.Equal(t, 150_000.0, inferred.Value)
}

func TestFundingRoundMath(t *testing.T) {
	t.Parallel()

	r := FundingRound{Name: "Seed", Amount: 2_000_000, PreMoney: 8_000_000}
	assert.Equal(t, 10_000_000.0, r.PostMoney())
	assert.InDelta(t, 0.2, r.NewMoneyPct(), 1e-9)

	zero := FundingRound{Name: "Broken"}
	assert.Equal(t, 0.0, zero.NewMoneyPct())
}

func TestInferredFieldCount(t *testing.T) {
	t.Parallel()

	facts := CompanyFacts{
		Revenue:     Actual(500_000, "reported"),
		GrowthRate:  Inferred(2.5, "stage_benchmark"),
		Valuation:   Inferred(12_000_000, "latest_round_post_money"),
		TotalRaised: Actual(2_000_000, "reported"),
	}
	inferred, total := facts.InferredFieldCount()
	assert.Equal(t, 2, inferred)
	assert.Equal(t, 4, total)
}

func TestLatestRound(t *testing.T) {
	t.Parallel()

	var empty CompanyFacts
	assert.Nil(t, empty.LatestRound())

	facts := CompanyFacts{FundingRounds: []FundingRound{
		{Name: "Pre-Seed"},
		{Name: "Seed"},
	}}
	assert.Equal(t, "Seed", facts.LatestRound().Name)
}
