package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/loader"
)

var (
	importRepsPath         string
	importTemplatesPath    string
	importAppointmentsPath string
	importNoGeocode        bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import reps, templates, and appointments from files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importRepsPath == "" && importTemplatesPath == "" && importAppointmentsPath == "" {
			return eris.New("at least one of --reps, --templates, --appointments is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		l := loader.New(st, nil)
		if !importNoGeocode {
			l = loader.New(st, initGeocoder())
		}

		if importRepsPath != "" {
			f, err := os.Open(importRepsPath)
			if err != nil {
				return eris.Wrap(err, "open reps csv")
			}
			res, err := l.ImportReps(ctx, f)
			f.Close() //nolint:errcheck
			if err != nil {
				return err
			}
			zap.L().Info("reps imported",
				zap.Int("imported", res.Imported),
				zap.Int("geocoded", res.Geocoded),
				zap.Int("skipped", res.Skipped))
		}

		if importTemplatesPath != "" {
			f, err := os.Open(importTemplatesPath)
			if err != nil {
				return eris.Wrap(err, "open templates yaml")
			}
			res, err := l.ImportTemplates(ctx, f)
			f.Close() //nolint:errcheck
			if err != nil {
				return err
			}
			zap.L().Info("templates imported", zap.Int("imported", res.Imported))
		}

		if importAppointmentsPath != "" {
			f, err := os.Open(importAppointmentsPath)
			if err != nil {
				return eris.Wrap(err, "open appointments csv")
			}
			res, err := l.ImportAppointments(ctx, f)
			f.Close() //nolint:errcheck
			if err != nil {
				return err
			}
			zap.L().Info("appointments imported",
				zap.Int("imported", res.Imported),
				zap.Int("geocoded", res.Geocoded))
		}

		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importRepsPath, "reps", "", "path to rep roster CSV")
	importCmd.Flags().StringVar(&importTemplatesPath, "templates", "", "path to weekly template YAML")
	importCmd.Flags().StringVar(&importAppointmentsPath, "appointments", "", "path to appointment CSV")
	importCmd.Flags().BoolVar(&importNoGeocode, "no-geocode", false, "skip geocoding rows without coordinates")
	rootCmd.AddCommand(importCmd)
}
