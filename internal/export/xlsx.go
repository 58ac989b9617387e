// Package export renders analysis reports to spreadsheet workbooks.
package export

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

const moneyFormat = "#,##0.00"

// WriteReport writes one report as an XLSX workbook with cap table,
// scenario, and fund-fit sheets.
func WriteReport(report *model.AnalysisReport, path string) error {
	if report == nil {
		return eris.New("export: nil report")
	}

	f := xlsx.NewFile()

	if err := addCapTableSheet(f, report); err != nil {
		return err
	}
	if err := addScenarioSheet(f, report); err != nil {
		return err
	}
	if err := addFundFitSheet(f, report); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addCapTableSheet(f *xlsx.File, report *model.AnalysisReport) error {
	sheet, err := f.AddSheet("Cap Table")
	if err != nil {
		return eris.Wrap(err, "export: add cap table sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Round", "Post-Money", "Holder", "Ownership %", "Invested"} {
		header.AddCell().Value = h
	}

	for _, snap := range report.CapTable {
		for _, name := range sortedHolders(snap.Holders) {
			h := snap.Holders[name]
			row := sheet.AddRow()
			row.AddCell().Value = snap.RoundName
			row.AddCell().SetFloatWithFormat(snap.PostMoney, moneyFormat)
			row.AddCell().Value = name
			row.AddCell().SetFloatWithFormat(h.Fraction*100, "0.00")
			row.AddCell().SetFloatWithFormat(h.Invested, moneyFormat)
		}
	}

	for _, rej := range report.RejectedRounds {
		row := sheet.AddRow()
		row.AddCell().Value = rej.Name
		row.AddCell().Value = "REJECTED"
		row.AddCell().Value = rej.Reason
	}

	return nil
}

func addScenarioSheet(f *xlsx.File, report *model.AnalysisReport) error {
	sheet, err := f.AddSheet("Scenarios")
	if err != nil {
		return eris.Wrap(err, "export: add scenario sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Scenario", "Probability", "Exit Value", "Years", "Proceeds", "MOIC", "IRR", "Exit %"} {
		header.AddCell().Value = h
	}

	for _, r := range report.Valuation.Results {
		row := sheet.AddRow()
		row.AddCell().Value = r.Scenario.Name
		row.AddCell().SetFloatWithFormat(r.Scenario.Probability, "0.00")
		row.AddCell().SetFloatWithFormat(r.Scenario.ExitValue, moneyFormat)
		row.AddCell().SetFloatWithFormat(r.Scenario.TimeToExitYears, "0.0")
		row.AddCell().SetFloatWithFormat(r.Proceeds, moneyFormat)
		row.AddCell().SetFloatWithFormat(r.MOIC, "0.00")
		row.AddCell().SetFloatWithFormat(r.IRR, "0.0000")
		row.AddCell().SetFloatWithFormat(r.ExitOwnershipPct*100, "0.00")
	}

	sheet.AddRow()
	expected := sheet.AddRow()
	expected.AddCell().Value = "Expected"
	expected.AddCell().Value = ""
	expected.AddCell().Value = ""
	expected.AddCell().Value = ""
	expected.AddCell().Value = ""
	expected.AddCell().SetFloatWithFormat(report.Valuation.ExpectedMOIC, "0.00")
	expected.AddCell().SetFloatWithFormat(report.Valuation.ExpectedIRR, "0.0000")

	return nil
}

func addFundFitSheet(f *xlsx.File, report *model.AnalysisReport) error {
	sheet, err := f.AddSheet("Fund Fit")
	if err != nil {
		return eris.Wrap(err, "export: add fund fit sheet")
	}

	addKV := func(k, v string) {
		row := sheet.AddRow()
		row.AddCell().Value = k
		row.AddCell().Value = v
	}

	addKV("Company", report.Company)
	addKV("Stage", string(report.Facts.Stage))
	addKV("Recommendation", string(report.FundFit.Recommendation))
	addKV("Overall Score", fmt.Sprintf("%.2f", report.FundFit.Overall))
	addKV("Suggested Check", fmt.Sprintf("%.0f", report.FundFit.SuggestedCheckSize))
	addKV("Confidence", fmt.Sprintf("%.2f", report.Confidence))

	sheet.AddRow()
	header := sheet.AddRow()
	header.AddCell().Value = "Component"
	header.AddCell().Value = "Score"

	components := make([]string, 0, len(report.FundFit.Components))
	for k := range report.FundFit.Components {
		components = append(components, k)
	}
	sort.Strings(components)
	for _, k := range components {
		row := sheet.AddRow()
		row.AddCell().Value = k
		row.AddCell().SetFloatWithFormat(report.FundFit.Components[k], "0.00")
	}

	return nil
}

func sortedHolders(holders map[string]model.Holding) []string {
	names := make([]string, 0, len(holders))
	for name := range holders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
