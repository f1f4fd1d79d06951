package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
)

var (
	repsLat    float64
	repsLng    float64
	repsDate   string
	repsSlot   string
	repsRadius float64
)

var repsCmd = &cobra.Command{
	Use:   "reps",
	Short: "List the rep roster, or the reps within range of a point",
	Long: `List the rep roster. With --lat and --lng, list instead the reps
whose anchor for the given date and slot is within --radius miles of
that point, nearest first.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			return runRepsInRange(cmd, st)
		}

		reps, err := st.ListReps(ctx)
		if err != nil {
			return err
		}
		templates, err := st.ListTemplates(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-20s %-24s %-10s %s\n", "ID", "Name", "Home", "Located", "Template")
		for _, rep := range reps {
			home := rep.HomeAddress.City
			if rep.HomeAddress.State != "" {
				home += ", " + rep.HomeAddress.State
			}
			_, templated := templates[rep.ID]
			fmt.Printf("%-20s %-20s %-24s %-10v %v\n",
				rep.ID, rep.Name, home, rep.HomeAddress.HasCoordinates(), templated)
		}
		fmt.Printf("\n%d reps\n", len(reps))
		return nil
	},
}

func runRepsInRange(cmd *cobra.Command, st store.Store) error {
	ctx := cmd.Context()

	if repsSlot == "" {
		return eris.New("--slot is required with --lat/--lng")
	}
	slot, err := model.ParseTimeSlot(repsSlot)
	if err != nil {
		return eris.Wrap(err, "parse --slot")
	}

	day := model.Day(time.Now().UTC())
	if repsDate != "" {
		parsed, err := model.ParseDate(repsDate)
		if err != nil {
			return eris.Wrap(err, "parse --date")
		}
		day = parsed
	}

	radius := repsRadius
	if radius == 0 {
		radius = cfg.Engine.InRangeMiles
	}

	// Window extends one day back so anchors can chain to the previous
	// day's appointments.
	snap, err := store.LoadSnapshot(ctx, st, day.AddDate(0, 0, -1), day)
	if err != nil {
		return err
	}

	eng := engine.New(*snap)
	target := model.Coordinate{Lat: repsLat, Lng: repsLng}
	options := eng.RepsInRange(day, slot, target, radius)

	fmt.Printf("%-20s %-20s %10s  %s\n", "ID", "Name", "Miles", "Anchor")
	for _, opt := range options {
		fmt.Printf("%-20s %-20s %10.1f  %s\n",
			opt.RepID, opt.Name, opt.DistanceMiles, opt.Anchor.Source.Label())
	}
	fmt.Printf("\n%d reps within %.0f miles for %s %s\n",
		len(options), radius, model.FormatDate(day), slot)
	return nil
}

func init() {
	repsCmd.Flags().Float64Var(&repsLat, "lat", 0, "point latitude for the within-range listing")
	repsCmd.Flags().Float64Var(&repsLng, "lng", 0, "point longitude for the within-range listing")
	repsCmd.Flags().StringVar(&repsDate, "date", "", "date YYYY-MM-DD for the within-range listing (default today)")
	repsCmd.Flags().StringVar(&repsSlot, "slot", "", "time slot (10am, 2pm, or 7pm) for the within-range listing")
	repsCmd.Flags().Float64Var(&repsRadius, "radius", 0, "range in miles (default from config)")
	rootCmd.AddCommand(repsCmd)
}
