package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/export"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stored report as an XLSX workbook",
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
			return eris.Wrap(err, "export")
		}
		if report == nil {
			return eris.Errorf("report not found: %s", args[0])
		}

		out := exportOutPath
		if out == "" {
			out = report.Company + ".xlsx"
		}

		if err := export.WriteReport(report, out); err != nil {
			return err
		}

		zap.L().Info("report exported",
			zap.String("run_id", report.RunID),
			zap.String("path", out),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "", "output path (default <company>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
