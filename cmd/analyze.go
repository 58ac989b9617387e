package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
	"github.com/TalFeiny/Dilla-sub007/internal/pipeline"
)

var (
	analyzeFactsPath string
	analyzeAmount    float64
	analyzeFollowOn  float64

	fundSize        float64
	checkSizeMin    float64
	checkSizeMax    float64
	ownershipTarget float64
	leadInvestor    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single company from a facts file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := loadRequest(analyzeFactsPath)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		table, err := loadBenchmarks()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, table, st)

		report, err := p.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		zap.L().Info("analysis complete",
			zap.String("company", report.Company),
			zap.Float64("expected_moic", report.Valuation.ExpectedMOIC),
			zap.String("recommendation", string(report.FundFit.Recommendation)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// loadRequest reads a facts file and applies the position and fund flags.
// The file may be a bare RawFacts object or a full request with facts,
// position, and scenarios.
func loadRequest(path string) (pipeline.Request, error) {
	var req pipeline.Request

	data, err := os.ReadFile(path)
	if err != nil {
		return req, eris.Wrapf(err, "read facts file %s", path)
	}

	if err := json.Unmarshal(data, &req); err != nil {
		return req, eris.Wrapf(err, "parse facts file %s", path)
	}
	if req.Facts.Name == "" {
		// Bare RawFacts object.
		if err := json.Unmarshal(data, &req.Facts); err != nil {
			return req, eris.Wrapf(err, "parse facts file %s", path)
		}
	}
	if req.Facts.Name == "" {
		return req, eris.Errorf("facts file %s has no company name", path)
	}

	if analyzeAmount > 0 {
		req.Position.InvestmentAmount = analyzeAmount
	}
	if analyzeFollowOn > 0 {
		req.Position.FollowOnAmount = analyzeFollowOn
	}
	req.Fund = fundContextFromFlags()

	return req, nil
}

// fundContextFromFlags builds the fund context shared by analyze and
// batch. A zero fund size stays nil so scoring degrades to SKIP.
func fundContextFromFlags() model.FundContext {
	fund := model.FundContext{
		CheckSizeMin:    checkSizeMin,
		CheckSizeMax:    checkSizeMax,
		OwnershipTarget: ownershipTarget,
		IsLeadInvestor:  leadInvestor,
	}
	if fundSize > 0 {
		fund.FundSize = &fundSize
	}
	return fund
}

func addFundFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&fundSize, "fund-size", 0, "fund size in dollars (omit to skip fund-fit scoring)")
	cmd.Flags().Float64Var(&checkSizeMin, "check-min", 0, "minimum check size in dollars")
	cmd.Flags().Float64Var(&checkSizeMax, "check-max", 0, "maximum check size in dollars")
	cmd.Flags().Float64Var(&ownershipTarget, "ownership-target", 0, "target ownership fraction (e.g. 0.1)")
	cmd.Flags().BoolVar(&leadInvestor, "lead", false, "size the check as the round lead")
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFactsPath, "facts", "", "path to company facts JSON (required)")
	analyzeCmd.Flags().Float64Var(&analyzeAmount, "amount", 0, "entry investment amount in dollars")
	analyzeCmd.Flags().Float64Var(&analyzeFollowOn, "follow-on", 0, "reserved follow-on amount in dollars")
	addFundFlags(analyzeCmd)
	_ = analyzeCmd.MarkFlagRequired("facts")
	rootCmd.AddCommand(analyzeCmd)
}
