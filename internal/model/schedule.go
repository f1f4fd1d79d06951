package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// TimeSlot is one of the three fixed daily appointment slots.
type TimeSlot string

const (
	SlotMorning TimeSlot = "10am"
	SlotMidday  TimeSlot = "2pm"
	SlotEvening TimeSlot = "7pm"
)

// AllTimeSlots lists the slots in chronological order. Slot precedence
// everywhere in the engine is defined by position in this list.
var AllTimeSlots = []TimeSlot{SlotMorning, SlotMidday, SlotEvening}

var slotIndex = map[TimeSlot]int{
	SlotMorning: 0,
	SlotMidday:  1,
	SlotEvening: 2,
}

// Index returns the chronological position of the slot, or -1 for an
// unknown slot value.
func (s TimeSlot) Index() int {
	i, ok := slotIndex[s]
	if !ok {
		return -1
	}
	return i
}

// Before reports whether s is chronologically earlier than other.
func (s TimeSlot) Before(other TimeSlot) bool {
	return s.Index() < other.Index()
}

// Valid reports whether s is one of the three known slots.
func (s TimeSlot) Valid() bool {
	_, ok := slotIndex[s]
	return ok
}

// ParseTimeSlot parses a slot string ("10am", "2pm", "7pm").
func ParseTimeSlot(raw string) (TimeSlot, error) {
	s := TimeSlot(raw)
	if !s.Valid() {
		return "", eris.Errorf("model: unknown time slot %q", raw)
	}
	return s, nil
}

// WeeklyTemplate is a rep's recurring weekly pattern of bookable slots.
// A weekday absent from Days means the rep takes no appointments that
// day; a rep with no template at all is unavailable every day.
type WeeklyTemplate struct {
	RepID string                      `json:"rep_id"`
	Days  map[time.Weekday][]TimeSlot `json:"days"`
}

// Allows reports whether the template opens the given slot on the given
// weekday.
func (t WeeklyTemplate) Allows(day time.Weekday, slot TimeSlot) bool {
	for _, s := range t.Days[day] {
		if s == slot {
			return true
		}
	}
	return false
}

// DateLayout is the wire/storage format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to UTC midnight. All appointment dates are compared
// at day precision.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "model: parse date %q", raw)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
