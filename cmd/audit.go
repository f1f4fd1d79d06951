package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
)

var (
	auditFrom      string
	auditTo        string
	auditThreshold float64
	auditAll       bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit scheduled appointments for excessive drive distances",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		from, to, err := auditWindow()
		if err != nil {
			return err
		}

		threshold := auditThreshold
		if threshold == 0 {
			threshold = cfg.Engine.AuditThresholdMiles
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Window extends one day back so first-slot appointments can
		// anchor to the previous day.
		snap, err := store.LoadSnapshot(ctx, st, from.AddDate(0, 0, -1), to)
		if err != nil {
			return err
		}

		eng := engine.New(*snap)
		records := eng.AuditMileage(threshold)

		byID := make(map[string]model.Appointment, len(snap.Appointments))
		for _, appt := range snap.Appointments {
			byID[appt.ID] = appt
		}

		var flagged []model.MileageRecord
		for _, rec := range records {
			appt, ok := byID[rec.AppointmentID]
			if !ok || appt.Date.Before(from) {
				continue // anchor-only day
			}
			if rec.Flagged || auditAll {
				flagged = append(flagged, rec)
			}
		}
		sort.Slice(flagged, func(i, j int) bool {
			return flagged[i].DistanceMiles > flagged[j].DistanceMiles
		})

		fmt.Printf("%-36s %-18s %10s  %-14s  %s\n", "Appointment", "Rep", "Miles", "Anchor", "Flagged")
		for _, rec := range flagged {
			fmt.Printf("%-36s %-18s %10.1f  %-14s  %v\n",
				rec.AppointmentID, rec.RepID, rec.DistanceMiles, rec.Anchor.Source, rec.Flagged)
		}

		zap.L().Info("audit complete",
			zap.Int("audited", len(records)),
			zap.Int("reported", len(flagged)),
			zap.Float64("threshold_miles", threshold))
		return nil
	},
}

func auditWindow() (time.Time, time.Time, error) {
	now := model.Day(time.Now().UTC())
	from, to := now, now.AddDate(0, 0, 30)

	if auditFrom != "" {
		parsed, err := model.ParseDate(auditFrom)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrap(err, "parse --from")
		}
		from = parsed
	}
	if auditTo != "" {
		parsed, err := model.ParseDate(auditTo)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrap(err, "parse --to")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, eris.New("--to is before --from")
	}
	return from, to, nil
}

func init() {
	auditCmd.Flags().StringVar(&auditFrom, "from", "", "window start YYYY-MM-DD (default today)")
	auditCmd.Flags().StringVar(&auditTo, "to", "", "window end YYYY-MM-DD (default +30 days)")
	auditCmd.Flags().Float64Var(&auditThreshold, "threshold", 0, "flag distance in miles (default from config)")
	auditCmd.Flags().BoolVar(&auditAll, "all", false, "report every audited appointment, not only flagged ones")
	rootCmd.AddCommand(auditCmd)
}
