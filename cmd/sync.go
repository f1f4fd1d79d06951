package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/roster"
)

var syncProfile string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the rep roster from Salesforce",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sf, err := initSalesforce()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		profile := syncProfile
		if profile == "" {
			profile = cfg.Salesforce.RepProfile
		}

		res, err := roster.New(sf, initGeocoder(), st, profile).Sync(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("sync complete",
			zap.Int("synced", res.Synced),
			zap.Int("geocoded", res.Geocoded),
			zap.Int("unlocated", res.Skipped))
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncProfile, "profile", "", "Salesforce profile name (default from config)")
	rootCmd.AddCommand(syncCmd)
}
