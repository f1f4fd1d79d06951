package engine

import (
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/model"
)

// AuditMileage re-resolves the anchor for every scheduled, assigned
// appointment in the snapshot and measures the travel distance the rep
// actually faces. Records at or beyond thresholdMiles are flagged as
// mileage issues for the operations dashboard. The audit is read-only;
// it never mutates the ledger.
//
// The audited appointment is the target of its own distance
// computation, so it is excluded from its own anchor candidate set.
func (e *Engine) AuditMileage(thresholdMiles float64) map[string]model.MileageRecord {
	records := make(map[string]model.MileageRecord)

	for repID, appts := range e.byRep {
		rep, ok := e.repByID[repID]
		if !ok {
			zap.L().Warn("engine: audit skipping appointments for unknown rep",
				zap.String("rep_id", repID),
			)
			continue
		}

		for i := range appts {
			appt := appts[i]
			if !appt.IsScheduled() {
				continue
			}

			target, err := appt.Address.Coordinate()
			if err != nil {
				zap.L().Warn("engine: audit skipping appointment missing coordinates",
					zap.String("appointment_id", appt.ID),
					zap.String("rep_id", repID),
				)
				continue
			}

			anchor, err := ResolveAnchor(rep, appt.Date, excludeAppointment(appts, appt.ID), appt.Slot)
			if err != nil {
				zap.L().Warn("engine: audit anchor unresolvable",
					zap.String("appointment_id", appt.ID),
					zap.String("rep_id", repID),
					zap.Error(err),
				)
				continue
			}

			dist, err := DistanceMiles(anchor.Coordinate, target)
			if err != nil {
				continue
			}

			records[appt.ID] = model.MileageRecord{
				AppointmentID: appt.ID,
				RepID:         repID,
				DistanceMiles: dist,
				Anchor:        anchor,
				Flagged:       dist >= thresholdMiles,
			}
		}
	}

	return records
}

// excludeAppointment returns appts without the given ID. The snapshot
// slice is never modified in place.
func excludeAppointment(appts []model.Appointment, id string) []model.Appointment {
	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
