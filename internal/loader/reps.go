package loader

import (
	"context"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
	"github.com/sells-group/territory-cli/pkg/geocode"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int
	Geocoded int
	Skipped  int
}

// Loader imports records into the store.
type Loader struct {
	store store.Store
	geo   geocode.Client
}

// New creates a Loader. geo may be nil to disable geocoding of rows
// that arrive without coordinates.
func New(st store.Store, geo geocode.Client) *Loader {
	return &Loader{store: st, geo: geo}
}

// ImportReps reads a rep roster CSV with columns
// id,name,email,phone,color,street,city,state,zip,latitude,longitude
// and upserts each row. Missing coordinates are geocoded when a
// geocoder is configured; rows that still cannot be located are kept,
// since the engine degrades per rep rather than per grid.
func (l *Loader) ImportReps(ctx context.Context, r io.Reader) (*ImportResult, error) {
	// Cancel on every return path so an aborted import unblocks the
	// CSV producer instead of leaking it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &ImportResult{}
	rows, errs := streamCSV(ctx, r)

	for row := range rows {
		if row["id"] == "" || row["name"] == "" {
			res.Skipped++
			zap.L().Warn("rep row missing id or name", zap.Any("row", row))
			continue
		}

		rep := model.SalesRep{
			ID:    row["id"],
			Name:  titleCaser.String(row["name"]),
			Email: row["email"],
			Phone: row["phone"],
			Color: row["color"],
			HomeAddress: model.Address{
				Street: titleCaser.String(row["street"]),
				City:   titleCaser.String(row["city"]),
				State:  row["state"],
				Zip:    row["zip"],
			},
		}
		if err := parseCoordinates(row, &rep.HomeAddress); err != nil {
			return nil, eris.Wrapf(err, "loader: rep %s", rep.ID)
		}

		if !rep.HomeAddress.HasCoordinates() && l.geo != nil {
			ok, err := l.geocodeAddress(ctx, &rep.HomeAddress)
			if err != nil {
				return nil, eris.Wrapf(err, "loader: geocode rep %s", rep.ID)
			}
			if ok {
				res.Geocoded++
			} else {
				zap.L().Warn("rep home address did not geocode", zap.String("rep_id", rep.ID))
			}
		}

		if err := l.store.UpsertRep(ctx, rep); err != nil {
			return nil, eris.Wrapf(err, "loader: upsert rep %s", rep.ID)
		}
		res.Imported++
	}

	if err := <-errs; err != nil {
		return nil, err
	}
	return res, nil
}

// ImportAppointments reads an appointment CSV with columns
// rep_id,date,slot,status,street,city,state,zip,latitude,longitude
// and creates each row. Double-booked rows abort the import with
// store.ErrSlotTaken so the operator can fix the file.
func (l *Loader) ImportAppointments(ctx context.Context, r io.Reader) (*ImportResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &ImportResult{}
	rows, errs := streamCSV(ctx, r)

	for row := range rows {
		date, err := model.ParseDate(row["date"])
		if err != nil {
			return nil, eris.Wrapf(err, "loader: appointment date %q", row["date"])
		}
		slot, err := model.ParseTimeSlot(row["slot"])
		if err != nil {
			return nil, eris.Wrap(err, "loader: appointment slot")
		}

		appt := model.Appointment{
			RepID:  row["rep_id"],
			Date:   date,
			Slot:   slot,
			Status: model.AppointmentStatus(row["status"]),
			Address: model.Address{
				Street: titleCaser.String(row["street"]),
				City:   titleCaser.String(row["city"]),
				State:  row["state"],
				Zip:    row["zip"],
			},
		}
		if err := parseCoordinates(row, &appt.Address); err != nil {
			return nil, eris.Wrap(err, "loader: appointment")
		}

		if !appt.Address.HasCoordinates() && l.geo != nil {
			ok, err := l.geocodeAddress(ctx, &appt.Address)
			if err != nil {
				return nil, eris.Wrap(err, "loader: geocode appointment")
			}
			if ok {
				res.Geocoded++
			}
		}

		if _, err := l.store.CreateAppointment(ctx, appt); err != nil {
			return nil, eris.Wrap(err, "loader: create appointment")
		}
		res.Imported++
	}

	if err := <-errs; err != nil {
		return nil, err
	}
	return res, nil
}

func (l *Loader) geocodeAddress(ctx context.Context, addr *model.Address) (bool, error) {
	result, err := l.geo.Geocode(ctx, geocode.AddressInput{
		Street:  addr.Street,
		City:    addr.City,
		State:   addr.State,
		ZipCode: addr.Zip,
	})
	if err != nil {
		return false, err
	}
	if !result.Matched {
		return false, nil
	}
	addr.Latitude = &result.Latitude
	addr.Longitude = &result.Longitude
	return true, nil
}

func parseCoordinates(row map[string]string, addr *model.Address) error {
	latStr, lngStr := row["latitude"], row["longitude"]
	if latStr == "" && lngStr == "" {
		return nil
	}
	if latStr == "" || lngStr == "" {
		return eris.New("loader: latitude and longitude must both be present")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return eris.Wrap(err, "loader: parse latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return eris.Wrap(err, "loader: parse longitude")
	}
	addr.Latitude = &lat
	addr.Longitude = &lng
	return nil
}
