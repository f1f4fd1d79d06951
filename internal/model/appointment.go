package model

import "time"

// AppointmentStatus is the lifecycle state of a booking.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is one booked slot in the ledger. RepID is empty while the
// booking is unassigned. Only scheduled appointments participate in
// conflict checks and anchor chaining.
type Appointment struct {
	ID        string            `json:"id"`
	RepID     string            `json:"rep_id,omitempty"`
	Date      time.Time         `json:"date"`
	Slot      TimeSlot          `json:"time_slot"`
	Status    AppointmentStatus `json:"status"`
	Address   Address           `json:"address"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsScheduled reports whether the appointment is an active booking.
func (a Appointment) IsScheduled() bool {
	return a.Status == StatusScheduled
}

// On reports whether the appointment falls on the given calendar day.
func (a Appointment) On(day time.Time) bool {
	return Day(a.Date).Equal(Day(day))
}
