package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "territory-cli",
	Short: "Geographic availability and routing engine for field sales booking",
	Long:  "Builds the availability grid for appointment booking, audits scheduled mileage, and syncs the rep roster from Salesforce.",
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
