package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/export"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
	"github.com/sells-group/territory-cli/pkg/geocode"
)

var (
	gridStreet     string
	gridCity       string
	gridState      string
	gridZip        string
	gridLat        float64
	gridLng        float64
	gridDate       string
	gridWeekOffset int
	gridThreshold  float64
	gridExportPath string
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Build the availability grid for a target address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		target := model.Address{
			Street: gridStreet,
			City:   gridCity,
			State:  gridState,
			Zip:    gridZip,
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			target.Latitude = &gridLat
			target.Longitude = &gridLng
		}

		start := time.Now().UTC()
		if gridDate != "" {
			parsed, err := model.ParseDate(gridDate)
			if err != nil {
				return eris.Wrap(err, "parse --date")
			}
			start = parsed
		}

		threshold := gridThreshold
		if threshold == 0 {
			threshold = cfg.Engine.BookingThresholdMiles
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if !target.HasCoordinates() {
			if err := geocodeTarget(ctx, &target); err != nil {
				return err
			}
		}

		days, err := buildGrid(ctx, st, engine.GridRequest{
			Target:         target,
			Start:          start,
			HorizonDays:    cfg.Engine.HorizonDays,
			WeekOffset:     gridWeekOffset,
			ThresholdMiles: threshold,
		})
		if err != nil {
			return err
		}

		printGrid(days)

		if gridExportPath != "" {
			if err := export.WriteGridXLSX(gridExportPath, days); err != nil {
				return err
			}
			zap.L().Info("grid exported", zap.String("path", gridExportPath))
		}
		return nil
	},
}

// buildGrid loads a fresh snapshot and evaluates the grid. The window
// starts one day before the grid so first-slot evaluations can chain to
// the previous day's appointments.
func buildGrid(ctx context.Context, st store.Store, req engine.GridRequest) ([]model.DayAvailability, error) {
	start := model.Day(req.Start).AddDate(0, 0, 7*req.WeekOffset)
	snap, err := store.LoadSnapshot(ctx, st, start.AddDate(0, 0, -1), start.AddDate(0, 0, req.HorizonDays-1))
	if err != nil {
		return nil, err
	}

	eng := engine.New(*snap, engine.WithWorkers(cfg.Engine.Workers))
	return eng.BuildGrid(ctx, req)
}

func geocodeTarget(ctx context.Context, target *model.Address) error {
	result, err := initGeocoder().Geocode(ctx, geocode.AddressInput{
		Street:  target.Street,
		City:    target.City,
		State:   target.State,
		ZipCode: target.Zip,
	})
	if err != nil {
		return eris.Wrap(err, "geocode target")
	}
	if !result.Matched {
		return eris.New("target address did not geocode; pass --lat and --lng")
	}
	target.Latitude = &result.Latitude
	target.Longitude = &result.Longitude
	return nil
}

func printGrid(days []model.DayAvailability) {
	fmt.Printf("%-12s %-4s", "Date", "Day")
	for _, slot := range model.AllTimeSlots {
		fmt.Printf("  %-14s", slot)
	}
	fmt.Println()

	for _, day := range days {
		fmt.Printf("%-12s %-4s", model.FormatDate(day.Date), day.Date.Weekday().String()[:3])
		for _, slot := range day.Slots {
			cell := string(slot.Status)
			if slot.AvailableCount > 0 {
				cell = fmt.Sprintf("%s (%d)", slot.Status, slot.AvailableCount)
			}
			fmt.Printf("  %-14s", cell)
		}
		fmt.Println()
	}
}

func init() {
	gridCmd.Flags().StringVar(&gridStreet, "street", "", "target street address")
	gridCmd.Flags().StringVar(&gridCity, "city", "", "target city")
	gridCmd.Flags().StringVar(&gridState, "state", "", "target state")
	gridCmd.Flags().StringVar(&gridZip, "zip", "", "target ZIP code")
	gridCmd.Flags().Float64Var(&gridLat, "lat", 0, "target latitude (skips geocoding)")
	gridCmd.Flags().Float64Var(&gridLng, "lng", 0, "target longitude (skips geocoding)")
	gridCmd.Flags().StringVar(&gridDate, "date", "", "grid start date YYYY-MM-DD (default today)")
	gridCmd.Flags().IntVar(&gridWeekOffset, "week", 0, "week offset from the start date")
	gridCmd.Flags().Float64Var(&gridThreshold, "threshold", 0, "booking radius in miles (default from config)")
	gridCmd.Flags().StringVar(&gridExportPath, "export", "", "write the grid to an XLSX file")
	rootCmd.AddCommand(gridCmd)
}
