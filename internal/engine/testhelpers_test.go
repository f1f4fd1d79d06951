package engine

import (
	"time"

	"github.com/sells-group/territory-cli/internal/model"
)

func ptr(f float64) *float64 { return &f }

func addrAt(lat, lng float64) model.Address {
	return model.Address{Latitude: ptr(lat), Longitude: ptr(lng)}
}

func repAt(id string, lat, lng float64) model.SalesRep {
	return model.SalesRep{ID: id, Name: "Rep " + id, HomeAddress: addrAt(lat, lng)}
}

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func appt(id, repID, date string, slot model.TimeSlot, status model.AppointmentStatus, lat, lng float64) model.Appointment {
	return model.Appointment{
		ID:      id,
		RepID:   repID,
		Date:    day(date),
		Slot:    slot,
		Status:  status,
		Address: addrAt(lat, lng),
	}
}

// fullWeekTemplate opens every slot on every weekday for a rep.
func fullWeekTemplate(repID string) model.WeeklyTemplate {
	days := make(map[time.Weekday][]model.TimeSlot, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		days[wd] = append([]model.TimeSlot(nil), model.AllTimeSlots...)
	}
	return model.WeeklyTemplate{RepID: repID, Days: days}
}
