package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
	"github.com/TalFeiny/Dilla-sub007/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored analysis reports",
	Long:  "Commands for listing and viewing persisted analysis runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("no store configured: set store.driver to postgres or sqlite")
		}
		defer st.Close() //nolint:errcheck

		company, _ := cmd.Flags().GetString("company")
		rec, _ := cmd.Flags().GetString("recommendation")
		limit, _ := cmd.Flags().GetInt("limit")

		summaries, err := st.ListReports(ctx, store.ReportFilter{
			Company:        company,
			Recommendation: model.Recommendation(rec),
			Limit:          limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(summaries) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		formatReportList(os.Stdout, summaries)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("no store configured: set store.driver to postgres or sqlite")
		}
		defer st.Close() //nolint:errcheck

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if report == nil {
			return eris.Errorf("report not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	runsListCmd.Flags().String("company", "", "filter by company name")
	runsListCmd.Flags().String("recommendation", "", "filter by recommendation (INVEST, MAYBE, PASS, SKIP)")
	runsListCmd.Flags().Int("limit", 50, "max number of reports to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatReportList writes a tabular list of report summaries to w.
func formatReportList(out io.Writer, summaries []model.ReportSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tSTAGE\tRECOMMENDATION\tE[MOIC]\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t-----\t--------------\t-------\t-------")

	for _, s := range summaries {
		company := s.Company
		if len(company) > 30 {
			company = company[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
			truncateID(s.RunID),
			company,
			s.Stage,
			s.Recommendation,
			s.ExpectedMOIC,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
