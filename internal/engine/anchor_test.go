package engine

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/territory-cli/internal/model"
)

func TestResolveAnchor_NoAppointmentsFallsBackToHome(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)

	for _, slot := range model.AllTimeSlots {
		anchor, err := ResolveAnchor(rep, day("2026-08-03"), nil, slot)
		require.NoError(t, err)
		assert.Equal(t, model.AnchorHome, anchor.Source)
		assert.Equal(t, model.Coordinate{Lat: 33.0, Lng: -84.0}, anchor.Coordinate)
		assert.Empty(t, anchor.AppointmentID)
	}
}

func TestResolveAnchor_SameDayEarlierAppointment(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-03", model.SlotMorning, model.StatusScheduled, 33.05, -84.05),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMidday)
	require.NoError(t, err)
	assert.Equal(t, model.AnchorLastAppointment, anchor.Source)
	assert.Equal(t, model.Coordinate{Lat: 33.05, Lng: -84.05}, anchor.Coordinate)
	assert.Equal(t, "a1", anchor.AppointmentID)
}

func TestResolveAnchor_LatestSameDayAppointmentWins(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-03", model.SlotMorning, model.StatusScheduled, 33.1, -84.1),
		appt("a2", "r1", "2026-08-03", model.SlotMidday, model.StatusScheduled, 33.2, -84.2),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotEvening)
	require.NoError(t, err)
	assert.Equal(t, "a2", anchor.AppointmentID)
	assert.Equal(t, model.Coordinate{Lat: 33.2, Lng: -84.2}, anchor.Coordinate)
}

func TestResolveAnchor_FirstSlotUsesPreviousDay(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-02", model.SlotEvening, model.StatusScheduled, 33.3, -84.3),
	}

	// No same-day predecessor for 10am, so the previous day's last
	// appointment anchors the morning drive, not home.
	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMorning)
	require.NoError(t, err)
	assert.Equal(t, model.AnchorLastAppointment, anchor.Source)
	assert.Equal(t, "a1", anchor.AppointmentID)
}

func TestResolveAnchor_PreviousDayPicksLatestSlot(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-02", model.SlotMorning, model.StatusScheduled, 33.1, -84.1),
		appt("a2", "r1", "2026-08-02", model.SlotEvening, model.StatusScheduled, 33.4, -84.4),
		appt("a3", "r1", "2026-08-02", model.SlotMidday, model.StatusScheduled, 33.2, -84.2),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMorning)
	require.NoError(t, err)
	assert.Equal(t, "a2", anchor.AppointmentID)
}

func TestResolveAnchor_IgnoresCompletedAndCancelled(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-03", model.SlotMorning, model.StatusCancelled, 33.1, -84.1),
		appt("a2", "r1", "2026-08-02", model.SlotEvening, model.StatusCompleted, 33.2, -84.2),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMidday)
	require.NoError(t, err)
	assert.Equal(t, model.AnchorHome, anchor.Source)
}

func TestResolveAnchor_TwoDaysAgoDoesNotChain(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-01", model.SlotEvening, model.StatusScheduled, 33.5, -84.5),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMorning)
	require.NoError(t, err)
	assert.Equal(t, model.AnchorHome, anchor.Source)
}

func TestResolveAnchor_DuplicateSlotPicksLowestID(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	// Two scheduled appointments in the same slot: an upstream ledger
	// bug the resolver must tolerate deterministically.
	appts := []model.Appointment{
		appt("b2", "r1", "2026-08-03", model.SlotMorning, model.StatusScheduled, 33.2, -84.2),
		appt("b1", "r1", "2026-08-03", model.SlotMorning, model.StatusScheduled, 33.1, -84.1),
	}

	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMidday)
	require.NoError(t, err)
	assert.Equal(t, "b1", anchor.AppointmentID)

	// Same result regardless of input order.
	appts[0], appts[1] = appts[1], appts[0]
	anchor, err = ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotMidday)
	require.NoError(t, err)
	assert.Equal(t, "b1", anchor.AppointmentID)
}

func TestResolveAnchor_SkipsAppointmentsWithoutCoordinates(t *testing.T) {
	rep := repAt("r1", 33.0, -84.0)
	broken := model.Appointment{
		ID: "a2", RepID: "r1", Date: day("2026-08-03"),
		Slot: model.SlotMidday, Status: model.StatusScheduled,
		Address: model.Address{Street: "ungeocodable"},
	}
	appts := []model.Appointment{
		appt("a1", "r1", "2026-08-03", model.SlotMorning, model.StatusScheduled, 33.1, -84.1),
		broken,
	}

	// The 2pm appointment has no coordinates, so the 10am one anchors
	// the evening slot instead.
	anchor, err := ResolveAnchor(rep, day("2026-08-03"), appts, model.SlotEvening)
	require.NoError(t, err)
	assert.Equal(t, "a1", anchor.AppointmentID)
}

func TestResolveAnchor_HomeWithoutCoordinatesIsError(t *testing.T) {
	rep := model.SalesRep{ID: "r1", HomeAddress: model.Address{City: "Atlanta"}}

	_, err := ResolveAnchor(rep, day("2026-08-03"), nil, model.SlotMorning)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrMissingCoordinate))
}
