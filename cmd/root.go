package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/config"
	"github.com/TalFeiny/Dilla-sub007/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dilla",
	Short: "Cap-table evolution and exit-waterfall analysis for early-stage investing",
	Long:  "Normalizes sparse company facts against stage benchmarks, rebuilds the cap table round by round, resolves exit waterfalls across probability-weighted scenarios, and scores fund fit.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadBenchmarks returns the configured table, falling back to the
// embedded defaults.
func loadBenchmarks() (*benchmark.Table, error) {
	if cfg.Benchmarks.Path != "" {
		return benchmark.Load(cfg.Benchmarks.Path)
	}
	return benchmark.Default()
}

// initStore opens the configured store, or returns nil when persistence
// is disabled. Callers must Close a non-nil store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
