package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/pipeline"
)

var (
	batchInputPath string
	batchAmount    float64
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze multiple companies from a JSON array",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reqs, err := loadBatch(batchInputPath)
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			return eris.Errorf("batch file %s contains no companies", batchInputPath)
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
		results := p.RunBatch(ctx, reqs)

		var failed int
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		zap.L().Info("batch complete",
			zap.Int("companies", len(results)),
			zap.Int("failed", failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// loadBatch reads a JSON array of requests (or bare facts objects) and
// applies the shared position and fund flags.
func loadBatch(path string) ([]pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch file %s", path)
	}

	var reqs []pipeline.Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, eris.Wrapf(err, "parse batch file %s", path)
	}

	fund := fundContextFromFlags()
	for i := range reqs {
		if batchAmount > 0 && reqs[i].Position.InvestmentAmount == 0 {
			reqs[i].Position.InvestmentAmount = batchAmount
		}
		reqs[i].Fund = fund
	}
	return reqs, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInputPath, "input", "", "path to JSON array of company requests (required)")
	batchCmd.Flags().Float64Var(&batchAmount, "amount", 0, "default entry amount for requests without one")
	addFundFlags(batchCmd)
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
