package engine

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/model"
)

// Status classification thresholds (included-rep count).
const (
	limitedMaxCount = 2 // 1..2 reps => limited; 3+ => good
)

// ClassifyStatus buckets an included-rep count into the three-tier
// confidence status shown by the booking grid.
// Rules:
//   - none: 0 reps
//   - limited: 1-2 reps
//   - good: 3+ reps
func ClassifyStatus(count int) model.SlotStatus {
	switch {
	case count <= 0:
		return model.StatusNone
	case count <= limitedMaxCount:
		return model.StatusLimited
	default:
		return model.StatusGood
	}
}

// Snapshot is the immutable input set for one engine invocation. The
// caller owns freshness: re-fetch the appointment window from the
// ledger immediately before constructing an Engine.
type Snapshot struct {
	Roster       []model.SalesRep
	Templates    map[string]model.WeeklyTemplate
	Appointments []model.Appointment
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the concurrency limit for grid assembly.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine evaluates availability over a fixed snapshot. Per-day,
// per-slot, and per-rep evaluations are independent, so grid assembly
// parallelizes without synchronization as long as the snapshot is not
// mutated concurrently.
type Engine struct {
	roster    []model.SalesRep
	repByID   map[string]model.SalesRep
	templates map[string]model.WeeklyTemplate
	byRep     map[string][]model.Appointment
	workers   int
}

// New builds an Engine from a snapshot. Appointments are indexed by
// assigned rep; the input slices are not retained mutably, so the engine
// never writes to them.
func New(snap Snapshot, opts ...Option) *Engine {
	e := &Engine{
		roster:    snap.Roster,
		repByID:   make(map[string]model.SalesRep, len(snap.Roster)),
		templates: snap.Templates,
		byRep:     make(map[string][]model.Appointment),
		workers:   4,
	}
	if e.templates == nil {
		e.templates = map[string]model.WeeklyTemplate{}
	}
	for _, rep := range snap.Roster {
		e.repByID[rep.ID] = rep
	}
	for _, appt := range snap.Appointments {
		if appt.RepID == "" {
			continue
		}
		e.byRep[appt.RepID] = append(e.byRep[appt.RepID], appt)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnchorFor resolves the travel-distance origin for one rep at one
// (date, slot), using only that rep's own appointments.
func (e *Engine) AnchorFor(repID string, date time.Time, slot model.TimeSlot) (model.AnchorResult, error) {
	rep, ok := e.repByID[repID]
	if !ok {
		return model.AnchorResult{}, eris.Errorf("engine: unknown rep %s", repID)
	}
	return ResolveAnchor(rep, date, e.byRep[repID], slot)
}

// EvaluateSlot filters the roster down to reps who are
// template-available, unbooked, and within thresholdMiles of target
// from their resolved anchor, then classifies the result. A malformed
// rep or appointment record skips that rep with a warning; one bad
// record must not blank the slot.
func (e *Engine) EvaluateSlot(date time.Time, slot model.TimeSlot, target model.Coordinate, thresholdMiles float64) model.Slot {
	day := model.Day(date)
	result := model.Slot{Date: day, Slot: slot}

	for _, rep := range e.roster {
		tpl, ok := e.templates[rep.ID]
		if !ok || !tpl.Allows(day.Weekday(), slot) {
			// Missing template means unavailable every day; a
			// legitimate business state, not an error.
			continue
		}
		if e.hasConflict(rep.ID, day, slot) {
			continue
		}

		anchor, err := ResolveAnchor(rep, day, e.byRep[rep.ID], slot)
		if err != nil {
			zap.L().Warn("engine: skipping rep, anchor unresolvable",
				zap.String("rep_id", rep.ID),
				zap.String("date", model.FormatDate(day)),
				zap.String("time_slot", string(slot)),
				zap.Error(err),
			)
			continue
		}

		dist, err := DistanceMiles(anchor.Coordinate, target)
		if err != nil {
			zap.L().Warn("engine: skipping rep, distance failed",
				zap.String("rep_id", rep.ID),
				zap.Error(err),
			)
			continue
		}
		if dist > thresholdMiles {
			continue
		}

		result.Options = append(result.Options, model.RepOption{
			RepID:         rep.ID,
			Name:          rep.Name,
			DistanceMiles: dist,
			Anchor:        anchor,
		})
	}

	sortOptions(result.Options)
	result.AvailableCount = len(result.Options)
	result.Status = ClassifyStatus(result.AvailableCount)
	return result
}

// RepsInRange lists every roster rep whose resolved anchor for
// (date, slot) lies within radiusMiles of target, nearest first. The
// listing is proximity only: template and booking gates belong to
// EvaluateSlot, so a booked rep still shows up here.
func (e *Engine) RepsInRange(date time.Time, slot model.TimeSlot, target model.Coordinate, radiusMiles float64) []model.RepOption {
	day := model.Day(date)
	var options []model.RepOption

	for _, rep := range e.roster {
		anchor, err := ResolveAnchor(rep, day, e.byRep[rep.ID], slot)
		if err != nil {
			zap.L().Warn("engine: skipping rep, anchor unresolvable",
				zap.String("rep_id", rep.ID),
				zap.String("date", model.FormatDate(day)),
				zap.String("time_slot", string(slot)),
				zap.Error(err),
			)
			continue
		}
		dist, err := DistanceMiles(anchor.Coordinate, target)
		if err != nil {
			continue
		}
		if dist > radiusMiles {
			continue
		}
		options = append(options, model.RepOption{
			RepID:         rep.ID,
			Name:          rep.Name,
			DistanceMiles: dist,
			Anchor:        anchor,
		})
	}

	sortOptions(options)
	return options
}

func sortOptions(opts []model.RepOption) {
	sort.Slice(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		return a.RepID < b.RepID
	})
}

// hasConflict reports whether the rep already has a scheduled
// appointment occupying (date, slot).
func (e *Engine) hasConflict(repID string, day time.Time, slot model.TimeSlot) bool {
	for _, a := range e.byRep[repID] {
		if a.IsScheduled() && a.Slot == slot && a.On(day) {
			return true
		}
	}
	return false
}
