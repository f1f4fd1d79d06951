// Package roster syncs the sales rep roster from Salesforce into the
// local store. Reps whose CRM records lack coordinates are geocoded on
// the way in so the availability engine never has to.
package roster

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
	"github.com/sells-group/territory-cli/pkg/geocode"
	"github.com/sells-group/territory-cli/pkg/salesforce"
)

// calendarPalette supplies display colors for reps that have none
// assigned. Assignment is by roster position so re-syncs are stable as
// long as the CRM ordering is.
var calendarPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Syncer pulls reps out of Salesforce and upserts them locally.
type Syncer struct {
	sf      salesforce.Client
	geo     geocode.Client
	store   store.Store
	profile string
}

// New creates a Syncer. profile is the Salesforce profile name that
// identifies field reps, e.g. "Field Sales Rep".
func New(sf salesforce.Client, geo geocode.Client, st store.Store, profile string) *Syncer {
	return &Syncer{sf: sf, geo: geo, store: st, profile: profile}
}

// Result summarizes a sync run.
type Result struct {
	Synced   int
	Geocoded int
	Skipped  int
}

// Sync fetches the active field reps and upserts each into the store.
// A rep without coordinates is geocoded from its home address; reps
// that still cannot be located are upserted anyway and logged, since
// the engine skips them per evaluation rather than failing the grid.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	users, err := salesforce.ListActiveFieldReps(ctx, s.sf, s.profile)
	if err != nil {
		return nil, eris.Wrap(err, "roster: fetch reps")
	}

	res := &Result{}
	for i, u := range users {
		rep := repFromUser(u, calendarPalette[i%len(calendarPalette)])

		if !rep.HomeAddress.HasCoordinates() {
			geocoded, err := s.geocodeHome(ctx, &rep)
			if err != nil {
				return nil, err
			}
			if geocoded {
				res.Geocoded++
			} else {
				res.Skipped++
				zap.L().Warn("rep home address did not geocode",
					zap.String("rep_id", rep.ID),
					zap.String("city", rep.HomeAddress.City))
			}
		}

		if err := s.store.UpsertRep(ctx, rep); err != nil {
			return nil, eris.Wrapf(err, "roster: upsert rep %s", rep.ID)
		}
		res.Synced++
	}

	zap.L().Info("roster sync complete",
		zap.Int("synced", res.Synced),
		zap.Int("geocoded", res.Geocoded),
		zap.Int("unlocated", res.Skipped))
	return res, nil
}

func (s *Syncer) geocodeHome(ctx context.Context, rep *model.SalesRep) (bool, error) {
	result, err := s.geo.Geocode(ctx, geocode.AddressInput{
		Street:  rep.HomeAddress.Street,
		City:    rep.HomeAddress.City,
		State:   rep.HomeAddress.State,
		ZipCode: rep.HomeAddress.Zip,
	})
	if err != nil {
		return false, eris.Wrapf(err, "roster: geocode rep %s", rep.ID)
	}
	if !result.Matched {
		return false, nil
	}
	rep.HomeAddress.Latitude = &result.Latitude
	rep.HomeAddress.Longitude = &result.Longitude
	return true, nil
}

func repFromUser(u salesforce.User, fallbackColor string) model.SalesRep {
	return model.SalesRep{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Color: fallbackColor,
		HomeAddress: model.Address{
			Street:    u.Street,
			City:      u.City,
			State:     u.State,
			Zip:       u.PostalCode,
			Latitude:  u.Latitude,
			Longitude: u.Longitude,
		},
	}
}
