package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

func exportReport() *model.AnalysisReport {
	return &model.AnalysisReport{
		RunID:   "run-1",
		Company: "Testco",
		Facts: model.CompanyFacts{
			Name:  "Testco",
			Stage: model.StageSeed,
		},
		CapTable: []model.CapTableSnapshot{
			{
				RoundName: "Seed",
				PostMoney: 10_000_000,
				Holders: map[string]model.Holding{
					"Founders":       {Fraction: 0.8},
					"Seed Investors": {Fraction: 0.2, Invested: 2_000_000},
				},
			},
		},
		RejectedRounds: []model.RejectedRound{
			{Name: "Ghost Round", Reason: "round 1: non-positive amount"},
		},
		Valuation: model.ValuationSummary{
			Results: []model.ScenarioResult{
				{
					Scenario: model.ExitScenario{Name: "Bull", Probability: 0.2, ExitValue: 100_000_000, TimeToExitYears: 6},
					Proceeds: 20_000_000,
					MOIC:     10,
					IRR:      0.468,
				},
			},
			ExpectedMOIC: 2.0,
			ExpectedIRR:  0.12,
		},
		FundFit: model.FundFitScore{
			Overall:            81.5,
			Recommendation:     model.RecommendInvest,
			SuggestedCheckSize: 1_500_000,
			Components: map[string]float64{
				model.ComponentEntryValue:       85,
				model.ComponentGrowthTrajectory: 100,
			},
		},
		Confidence: 0.9,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "testco.xlsx")
	require.NoError(t, WriteReport(exportReport(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Equal(t, "Cap Table", f.Sheets[0].Name)
	assert.Equal(t, "Scenarios", f.Sheets[1].Name)
	assert.Equal(t, "Fund Fit", f.Sheets[2].Name)

	// Cap table rows are holder-sorted after the header, with the rejected
	// round appended.
	capTable := f.Sheets[0]
	assert.Equal(t, "Round", capTable.Rows[0].Cells[0].Value)
	assert.Equal(t, "Founders", capTable.Rows[1].Cells[2].Value)
	assert.Equal(t, "Seed Investors", capTable.Rows[2].Cells[2].Value)
	rejected := capTable.Rows[3]
	assert.Equal(t, "Ghost Round", rejected.Cells[0].Value)
	assert.Equal(t, "REJECTED", rejected.Cells[1].Value)

	scenarios := f.Sheets[1]
	assert.Equal(t, "Bull", scenarios.Rows[1].Cells[0].Value)
	last := scenarios.Rows[len(scenarios.Rows)-1]
	assert.Equal(t, "Expected", last.Cells[0].Value)

	fundFit := f.Sheets[2]
	assert.Equal(t, "Company", fundFit.Rows[0].Cells[0].Value)
	assert.Equal(t, "Testco", fundFit.Rows[0].Cells[1].Value)
	assert.Equal(t, "INVEST", fundFit.Rows[2].Cells[1].Value)
}

func TestWriteReportNilReport(t *testing.T) {
	t.Parallel()
	assert.Error(t, WriteReport(nil, filepath.Join(t.TempDir(), "x.xlsx")))
}
