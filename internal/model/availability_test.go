package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnchorSourceLabel(t *testing.T) {
	assert.Equal(t, "from Home", AnchorHome.Label())
	assert.Equal(t, "from Last Appt", AnchorLastAppointment.Label())
}

func TestAppointmentOn(t *testing.T) {
	appt := Appointment{
		ID:     "a1",
		Date:   time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC),
		Slot:   SlotMidday,
		Status: StatusScheduled,
	}

	assert.True(t, appt.On(time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, appt.On(time.Date(2026, 8, 3, 23, 0, 0, 0, time.UTC)))
	assert.False(t, appt.On(time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)))

	assert.True(t, appt.IsScheduled())
	appt.Status = StatusCancelled
	assert.False(t, appt.IsScheduled())
}
