package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "covidsync",
	Short: "COVID-19 daily report pipeline and dashboard",
	Long:  "Downloads daily COVID-19 case reports, normalizes them across schema changes, aggregates per country or state, and serves an interactive dashboard.",
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
