package engine

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/territory-cli/internal/model"
)

// GridRequest describes one availability grid computation. Start is an
// explicit reference date; the engine never consults the wall clock.
type GridRequest struct {
	Target         model.Address `json:"target"`
	Start          time.Time     `json:"start"`
	HorizonDays    int           `json:"horizon_days"`
	WeekOffset     int           `json:"week_offset"`
	ThresholdMiles float64       `json:"threshold_miles"`
}

// BuildGrid evaluates every (day, slot) cell of the horizon and returns
// one DayAvailability per day, slots in fixed [10am, 2pm, 7pm] order.
// WeekOffset shifts the window by exactly 7 days per unit in either
// direction.
//
// A target address without coordinates fails the whole call: an
// all-none grid computed against a garbage origin would be misread as
// "no availability" instead of "bad input". Days are evaluated
// concurrently; every slot is computed independently from the snapshot,
// never reused from a prior build.
func (e *Engine) BuildGrid(ctx context.Context, req GridRequest) ([]model.DayAvailability, error) {
	target, err := req.Target.Coordinate()
	if err != nil {
		return nil, eris.Wrap(err, "engine: grid target address")
	}
	if req.HorizonDays <= 0 {
		return nil, eris.Errorf("engine: horizon must be positive, got %d", req.HorizonDays)
	}
	if req.ThresholdMiles <= 0 {
		return nil, eris.Errorf("engine: distance threshold must be positive, got %v", req.ThresholdMiles)
	}

	start := model.Day(req.Start).AddDate(0, 0, 7*req.WeekOffset)
	days := make([]model.DayAvailability, req.HorizonDays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < req.HorizonDays; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "engine: grid cancelled")
			}
			date := start.AddDate(0, 0, i)
			day := model.DayAvailability{
				Date:  date,
				Slots: make([]model.Slot, 0, len(model.AllTimeSlots)),
			}
			for _, slot := range model.AllTimeSlots {
				day.Slots = append(day.Slots, e.EvaluateSlot(date, slot, target, req.ThresholdMiles))
			}
			days[i] = day
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, nil
}
