// Package monitoring gathers operational KPIs from the scheduling
// store: booking volume, roster health, mileage issues, and the
// geographic footprint of the booked territory.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of scheduling health.
type MetricsSnapshot struct {
	// Booking metrics (within the report window).
	AppointmentsTotal     int `json:"appointments_total"`
	AppointmentsScheduled int `json:"appointments_scheduled"`
	AppointmentsCompleted int `json:"appointments_completed"`
	AppointmentsCancelled int `json:"appointments_cancelled"`
	AppointmentsUnrouted  int `json:"appointments_unrouted"` // no rep assigned

	// Roster health.
	RepsTotal     int `json:"reps_total"`
	RepsUnlocated int `json:"reps_unlocated"` // home address has no coordinates
	RepsTemplated int `json:"reps_templated"`

	// Mileage issues: scheduled appointments whose drive from the
	// rep's anchor meets or exceeds the audit threshold.
	MileageIssues  int     `json:"mileage_issues"`
	LongestDriveMi float64 `json:"longest_drive_mi"`

	// Coverage is the bounding box of every located appointment in the
	// window, in lng/lat order.
	Coverage *CoverageBounds `json:"coverage,omitempty"`

	// Metadata.
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	CollectedAt time.Time `json:"collected_at"`
}

// CoverageBounds is a geographic bounding box.
type CoverageBounds struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store          store.Store
	auditThreshold float64
}

// NewCollector creates a metrics collector. auditThreshold is the
// mileage in miles at which a drive counts as an issue.
func NewCollector(st store.Store, auditThreshold float64) *Collector {
	return &Collector{store: st, auditThreshold: auditThreshold}
}

// Collect gathers a snapshot of scheduling metrics over [from, to].
func (c *Collector) Collect(ctx context.Context, from, to time.Time) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		WindowStart: model.Day(from),
		WindowEnd:   model.Day(to),
		CollectedAt: time.Now().UTC(),
	}

	engineSnap, err := store.LoadSnapshot(ctx, c.store, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load snapshot")
	}

	snap.RepsTotal = len(engineSnap.Roster)
	for _, rep := range engineSnap.Roster {
		if !rep.HomeAddress.HasCoordinates() {
			snap.RepsUnlocated++
		}
		if _, ok := engineSnap.Templates[rep.ID]; ok {
			snap.RepsTemplated++
		}
	}

	snap.AppointmentsTotal = len(engineSnap.Appointments)
	bounds := geom.NewBounds(geom.XY)
	located := 0
	for _, appt := range engineSnap.Appointments {
		switch appt.Status {
		case model.StatusScheduled:
			snap.AppointmentsScheduled++
		case model.StatusCompleted:
			snap.AppointmentsCompleted++
		case model.StatusCancelled:
			snap.AppointmentsCancelled++
		}
		if appt.RepID == "" {
			snap.AppointmentsUnrouted++
		}
		if coord, err := appt.Address.Coordinate(); err == nil {
			bounds.Extend(geom.NewPointFlat(geom.XY, []float64{coord.Lng, coord.Lat}))
			located++
		}
	}
	if located > 0 {
		snap.Coverage = &CoverageBounds{
			MinLng: bounds.Min(0),
			MinLat: bounds.Min(1),
			MaxLng: bounds.Max(0),
			MaxLat: bounds.Max(1),
		}
	}

	eng := engine.New(*engineSnap)
	for _, record := range eng.AuditMileage(c.auditThreshold) {
		if record.Flagged {
			snap.MileageIssues++
		}
		if record.DistanceMiles > snap.LongestDriveMi {
			snap.LongestDriveMi = record.DistanceMiles
		}
	}

	return snap, nil
}
