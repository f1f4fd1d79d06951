// Package engine implements the geographic availability and routing
// engine: anchor resolution, slot evaluation, grid assembly, and the
// mileage audit. The engine is a pure computation over an immutable
// snapshot of roster, templates, and appointments. It performs no I/O
// and holds no state between invocations.
package engine

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/model"
)

// EarthRadiusMiles is the mean Earth radius used by the haversine
// great-circle approximation.
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance between two points in
// statute miles. Invalid coordinates propagate as an error, never as a
// zero distance.
func DistanceMiles(a, b model.Coordinate) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, eris.Wrap(model.ErrMissingCoordinate, "engine: distance")
	}

	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLng*sinLng

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h)), nil
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
