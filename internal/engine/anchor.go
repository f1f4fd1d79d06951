package engine

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/model"
)

// ResolveAnchor determines the travel-distance origin for evaluating
// the given slot of the given day for one rep. appts must be that rep's
// own appointments; other reps' bookings never influence an anchor.
//
// Resolution order:
//  1. The rep's latest scheduled appointment earlier the same day.
//  2. Otherwise, the last scheduled appointment of the previous day.
//  3. Otherwise, the rep's home address.
//
// Reps drive a physical route each day, so the origin is the prior
// commitment on the route rather than a fixed office. The
// anchor is recomputed for every (rep, date, slot) evaluation; results
// are never cached across slots because the ledger mutates between
// bookings.
func ResolveAnchor(rep model.SalesRep, date time.Time, appts []model.Appointment, slot model.TimeSlot) (model.AnchorResult, error) {
	day := model.Day(date)
	prevDay := day.AddDate(0, 0, -1)

	// Same day: latest scheduled appointment strictly before the target
	// slot in chronological slot order.
	if anchor, ok := lastAppointmentBefore(rep.ID, appts, day, slot.Index()); ok {
		return anchor, nil
	}

	// Previous day: the day's final scheduled appointment, any slot.
	if anchor, ok := lastAppointmentBefore(rep.ID, appts, prevDay, len(model.AllTimeSlots)); ok {
		return anchor, nil
	}

	home, err := rep.HomeAddress.Coordinate()
	if err != nil {
		return model.AnchorResult{}, eris.Wrapf(err, "engine: rep %s home anchor", rep.ID)
	}
	return model.AnchorResult{Coordinate: home, Source: model.AnchorHome}, nil
}

// lastAppointmentBefore picks the scheduled appointment on day with the
// highest slot index below maxIndex. Same-slot duplicates should not
// exist under the ledger invariant; when they do, the lowest
// appointment ID wins and a warning is logged.
func lastAppointmentBefore(repID string, appts []model.Appointment, day time.Time, maxIndex int) (model.AnchorResult, bool) {
	var best *model.Appointment
	bestIdx := -1

	for i := range appts {
		a := &appts[i]
		if !a.IsScheduled() || !a.On(day) {
			continue
		}
		idx := a.Slot.Index()
		if idx < 0 || idx >= maxIndex {
			continue
		}
		if !a.Address.HasCoordinates() {
			zap.L().Warn("engine: anchor candidate missing coordinates, skipping",
				zap.String("rep_id", repID),
				zap.String("appointment_id", a.ID),
			)
			continue
		}
		switch {
		case idx > bestIdx:
			best, bestIdx = a, idx
		case idx == bestIdx && best != nil:
			zap.L().Warn("engine: duplicate scheduled appointments in slot",
				zap.String("rep_id", repID),
				zap.String("date", model.FormatDate(day)),
				zap.String("time_slot", string(a.Slot)),
			)
			if a.ID < best.ID {
				best = a
			}
		}
	}

	if best == nil {
		return model.AnchorResult{}, false
	}
	coord, err := best.Address.Coordinate()
	if err != nil {
		// Unreachable given the HasCoordinates gate above.
		return model.AnchorResult{}, false
	}
	return model.AnchorResult{
		Coordinate:    coord,
		Source:        model.AnchorLastAppointment,
		AppointmentID: best.ID,
	}, true
}
