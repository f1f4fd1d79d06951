package model

import "time"

// AnchorSource records where a travel-distance origin came from.
type AnchorSource string

const (
	AnchorHome            AnchorSource = "home"
	AnchorLastAppointment AnchorSource = "last-appointment"
)

// Label returns the display text used by the availability dashboards.
func (s AnchorSource) Label() string {
	if s == AnchorLastAppointment {
		return "from Last Appt"
	}
	return "from Home"
}

// AnchorResult is the resolved travel-distance origin for one
// (rep, date, slot) evaluation. AppointmentID is set only when the
// anchor came from a prior appointment.
type AnchorResult struct {
	Coordinate    Coordinate   `json:"coordinate"`
	Source        AnchorSource `json:"source"`
	AppointmentID string       `json:"appointment_id,omitempty"`
}

// RepOption is one rep deemed able to serve a slot, with the distance
// from their resolved anchor to the target address.
type RepOption struct {
	RepID         string       `json:"rep_id"`
	Name          string       `json:"name"`
	DistanceMiles float64      `json:"distance_miles"`
	Anchor        AnchorResult `json:"anchor"`
}

// SlotStatus is the three-tier confidence bucket shown by the booking
// grid. The bucketing hides raw headcounts at the boundary.
type SlotStatus string

const (
	StatusNone    SlotStatus = "none"
	StatusLimited SlotStatus = "limited"
	StatusGood    SlotStatus = "good"
)

// Slot is one (date, time-slot) cell of the availability grid.
type Slot struct {
	Date           time.Time   `json:"date"`
	Slot           TimeSlot    `json:"time_slot"`
	Options        []RepOption `json:"options"`
	AvailableCount int         `json:"available_count"`
	Status         SlotStatus  `json:"status"`
}

// DayAvailability holds one grid day: one Slot per time slot, in the
// fixed [10am, 2pm, 7pm] order.
type DayAvailability struct {
	Date  time.Time `json:"date"`
	Slots []Slot    `json:"slots"`
}

// MileageRecord is the auditor's finding for one scheduled appointment.
type MileageRecord struct {
	AppointmentID string       `json:"appointment_id"`
	RepID         string       `json:"rep_id"`
	DistanceMiles float64      `json:"distance_miles"`
	Anchor        AnchorResult `json:"anchor"`
	Flagged       bool         `json:"flagged"`
}
