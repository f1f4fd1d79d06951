// Package model defines the domain records for territory scheduling:
// reps, addresses, weekly availability templates, appointments, and the
// derived availability grid types.
package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrMissingCoordinate indicates an address cannot participate in a
// distance computation because it has no usable lat/lng.
var ErrMissingCoordinate = eris.New("model: address missing coordinates")

// Coordinate is a WGS-84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// Address is a postal address with optional geocoded coordinates.
// Latitude/Longitude are pointers so "not geocoded" is distinguishable
// from a genuine 0.0: an address without coordinates must never be
// treated as the null island.
type Address struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinate returns the address location, or ErrMissingCoordinate if
// the address has not been geocoded or carries non-finite values.
func (a Address) Coordinate() (Coordinate, error) {
	if a.Latitude == nil || a.Longitude == nil {
		return Coordinate{}, ErrMissingCoordinate
	}
	c := Coordinate{Lat: *a.Latitude, Lng: *a.Longitude}
	if !c.Valid() {
		return Coordinate{}, ErrMissingCoordinate
	}
	return c, nil
}

// HasCoordinates reports whether Coordinate would succeed.
func (a Address) HasCoordinates() bool {
	_, err := a.Coordinate()
	return err == nil
}
