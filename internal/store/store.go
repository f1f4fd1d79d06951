// Package store persists the scheduling domain: the rep roster, weekly
// availability templates, and the appointment ledger. Two backends are
// provided, SQLite for single-operator use and Postgres for shared
// deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrSlotTaken indicates a scheduled appointment already occupies the
// (rep, date, slot) being written. The ledger's unique index is the
// authoritative double-booking guard; the engine only reads.
var ErrSlotTaken = eris.New("store: slot already booked")

// AppointmentFilter narrows ListAppointments. Zero values mean "any".
type AppointmentFilter struct {
	RepID  string
	From   time.Time // inclusive calendar day
	To     time.Time // inclusive calendar day
	Status model.AppointmentStatus
}

// Store is the persistence interface for the scheduling platform.
type Store interface {
	// Roster
	UpsertRep(ctx context.Context, rep model.SalesRep) error
	GetRep(ctx context.Context, id string) (*model.SalesRep, error)
	ListReps(ctx context.Context) ([]model.SalesRep, error)

	// Weekly availability templates
	UpsertTemplate(ctx context.Context, tpl model.WeeklyTemplate) error
	GetTemplate(ctx context.Context, repID string) (*model.WeeklyTemplate, error)
	ListTemplates(ctx context.Context) (map[string]model.WeeklyTemplate, error)

	// Appointment ledger
	CreateAppointment(ctx context.Context, appt model.Appointment) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	AssignRep(ctx context.Context, apptID, repID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LoadSnapshot reads a consistent engine input set: the full roster and
// templates plus the appointment window [from, to]. Callers re-load
// immediately before each grid build so the engine sees the freshest
// ledger state available.
func LoadSnapshot(ctx context.Context, s Store, from, to time.Time) (*engine.Snapshot, error) {
	roster, err := s.ListReps(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: snapshot roster")
	}
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: snapshot templates")
	}
	appts, err := s.ListAppointments(ctx, AppointmentFilter{From: from, To: to})
	if err != nil {
		return nil, eris.Wrap(err, "store: snapshot appointments")
	}
	return &engine.Snapshot{
		Roster:       roster,
		Templates:    templates,
		Appointments: appts,
	}, nil
}

// templateDaysJSON is the storage shape for a weekly template's day
// map, keyed by lowercase weekday name.
type templateDaysJSON map[string][]string

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func encodeTemplateDays(days map[time.Weekday][]model.TimeSlot) templateDaysJSON {
	out := make(templateDaysJSON, len(days))
	for wd, slots := range days {
		name := weekdayName(wd)
		for _, s := range slots {
			out[name] = append(out[name], string(s))
		}
	}
	return out
}

func decodeTemplateDays(raw templateDaysJSON) (map[time.Weekday][]model.TimeSlot, error) {
	out := make(map[time.Weekday][]model.TimeSlot, len(raw))
	for name, slots := range raw {
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, eris.Errorf("store: unknown weekday %q in template", name)
		}
		for _, s := range slots {
			slot, err := model.ParseTimeSlot(s)
			if err != nil {
				return nil, eris.Wrap(err, "store: template slot")
			}
			out[wd] = append(out[wd], slot)
		}
	}
	return out, nil
}

func weekdayName(wd time.Weekday) string {
	switch wd {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}
