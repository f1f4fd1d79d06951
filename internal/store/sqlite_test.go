package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

func ptr(f float64) *float64 { return &f }

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRep(id string) model.SalesRep {
	return model.SalesRep{
		ID:    id,
		Name:  "Rep " + id,
		Email: id + "@sellsgroup.com",
		Color: "#1f77b4",
		HomeAddress: model.Address{
			Street:    "100 Main St",
			City:      "Atlanta",
			State:     "GA",
			Zip:       "30303",
			Latitude:  ptr(33.75),
			Longitude: ptr(-84.39),
		},
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSQLiteStore_RepRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rep := testRep("r1")
	require.NoError(t, s.UpsertRep(ctx, rep))

	got, err := s.GetRep(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, rep.Name, got.Name)
	assert.Equal(t, rep.HomeAddress.Street, got.HomeAddress.Street)
	require.NotNil(t, got.HomeAddress.Latitude)
	assert.Equal(t, 33.75, *got.HomeAddress.Latitude)

	// Upsert updates in place.
	rep.Name = "Renamed"
	require.NoError(t, s.UpsertRep(ctx, rep))
	got, err = s.GetRep(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	reps, err := s.ListReps(ctx)
	require.NoError(t, err)
	assert.Len(t, reps, 1)
}

func TestSQLiteStore_RepWithoutCoordinates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rep := model.SalesRep{ID: "r2", Name: "No Geo", HomeAddress: model.Address{City: "Macon", State: "GA"}}
	require.NoError(t, s.UpsertRep(ctx, rep))

	got, err := s.GetRep(ctx, "r2")
	require.NoError(t, err)
	assert.Nil(t, got.HomeAddress.Latitude)
	assert.Nil(t, got.HomeAddress.Longitude)
	assert.False(t, got.HomeAddress.HasCoordinates())
}

func TestSQLiteStore_GetRep_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRep(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_TemplateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertRep(ctx, testRep("r1")))

	tpl := model.WeeklyTemplate{
		RepID: "r1",
		Days: map[time.Weekday][]model.TimeSlot{
			time.Monday:   {model.SlotMorning, model.SlotEvening},
			time.Thursday: {model.SlotMidday},
		},
	}
	require.NoError(t, s.UpsertTemplate(ctx, tpl))

	got, err := s.GetTemplate(ctx, "r1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.TimeSlot{model.SlotMorning, model.SlotEvening}, got.Days[time.Monday])
	assert.Equal(t, []model.TimeSlot{model.SlotMidday}, got.Days[time.Thursday])
	assert.Empty(t, got.Days[time.Friday])

	all, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "r1")

	_, err = s.GetTemplate(ctx, "r9")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_CreateAppointment_AssignsIDAndDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appt, err := s.CreateAppointment(ctx, model.Appointment{
		RepID: "r1",
		Date:  mustDate(t, "2026-08-03"),
		Slot:  model.SlotMorning,
		Address: model.Address{
			Street: "200 Peach St", City: "Atlanta", State: "GA", Zip: "30303",
			Latitude: ptr(33.76), Longitude: ptr(-84.40),
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, model.StatusScheduled, appt.Status)

	got, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RepID)
	assert.Equal(t, mustDate(t, "2026-08-03"), got.Date)
	assert.Equal(t, model.SlotMorning, got.Slot)
	require.NotNil(t, got.Address.Latitude)
	assert.Equal(t, 33.76, *got.Address.Latitude)
}

func TestSQLiteStore_CreateAppointment_RejectsInvalidSlot(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateAppointment(context.Background(), model.Appointment{
		RepID: "r1",
		Date:  mustDate(t, "2026-08-03"),
		Slot:  model.TimeSlot("noon"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time slot")
}

func TestSQLiteStore_DoubleBookingRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := model.Appointment{
		RepID: "r1",
		Date:  mustDate(t, "2026-08-03"),
		Slot:  model.SlotMorning,
	}
	_, err := s.CreateAppointment(ctx, base)
	require.NoError(t, err)

	_, err = s.CreateAppointment(ctx, base)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSlotTaken))

	// Other slots and unassigned bookings remain fine.
	other := base
	other.Slot = model.SlotMidday
	_, err = s.CreateAppointment(ctx, other)
	require.NoError(t, err)

	unassigned := base
	unassigned.RepID = ""
	_, err = s.CreateAppointment(ctx, unassigned)
	require.NoError(t, err)
}

func TestSQLiteStore_CancelledSlotCanBeRebooked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := model.Appointment{
		RepID: "r1",
		Date:  mustDate(t, "2026-08-03"),
		Slot:  model.SlotEvening,
	}
	first, err := s.CreateAppointment(ctx, base)
	require.NoError(t, err)

	require.NoError(t, s.UpdateAppointmentStatus(ctx, first.ID, model.StatusCancelled))

	_, err = s.CreateAppointment(ctx, base)
	require.NoError(t, err, "the partial unique index only guards scheduled rows")
}

func TestSQLiteStore_ListAppointments_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []model.Appointment{
		{RepID: "r1", Date: mustDate(t, "2026-08-03"), Slot: model.SlotMorning},
		{RepID: "r1", Date: mustDate(t, "2026-08-05"), Slot: model.SlotMidday},
		{RepID: "r2", Date: mustDate(t, "2026-08-04"), Slot: model.SlotMorning},
	}
	for _, a := range seed {
		_, err := s.CreateAppointment(ctx, a)
		require.NoError(t, err)
	}
	cancelled, err := s.CreateAppointment(ctx, model.Appointment{
		RepID: "r2", Date: mustDate(t, "2026-08-04"), Slot: model.SlotEvening,
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateAppointmentStatus(ctx, cancelled.ID, model.StatusCancelled))

	all, err := s.ListAppointments(ctx, AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byRep, err := s.ListAppointments(ctx, AppointmentFilter{RepID: "r1"})
	require.NoError(t, err)
	assert.Len(t, byRep, 2)

	window, err := s.ListAppointments(ctx, AppointmentFilter{
		From: mustDate(t, "2026-08-04"),
		To:   mustDate(t, "2026-08-04"),
	})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	scheduled, err := s.ListAppointments(ctx, AppointmentFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	assert.Len(t, scheduled, 3)
}

func TestSQLiteStore_AssignRep(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appt, err := s.CreateAppointment(ctx, model.Appointment{
		Date: mustDate(t, "2026-08-03"),
		Slot: model.SlotMorning,
	})
	require.NoError(t, err)
	assert.Empty(t, appt.RepID)

	require.NoError(t, s.AssignRep(ctx, appt.ID, "r1"))
	got, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RepID)

	err = s.AssignRep(ctx, "missing", "r1")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestLoadSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRep(ctx, testRep("r1")))
	require.NoError(t, s.UpsertTemplate(ctx, model.WeeklyTemplate{
		RepID: "r1",
		Days:  map[time.Weekday][]model.TimeSlot{time.Monday: {model.SlotMorning}},
	}))
	_, err := s.CreateAppointment(ctx, model.Appointment{
		RepID: "r1", Date: mustDate(t, "2026-08-03"), Slot: model.SlotMorning,
	})
	require.NoError(t, err)
	_, err = s.CreateAppointment(ctx, model.Appointment{
		RepID: "r1", Date: mustDate(t, "2026-09-01"), Slot: model.SlotMorning,
	})
	require.NoError(t, err)

	snap, err := LoadSnapshot(ctx, s, mustDate(t, "2026-08-01"), mustDate(t, "2026-08-31"))
	require.NoError(t, err)
	assert.Len(t, snap.Roster, 1)
	assert.Contains(t, snap.Templates, "r1")
	assert.Len(t, snap.Appointments, 1, "window excludes the September booking")
}
