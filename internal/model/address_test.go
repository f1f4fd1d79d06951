package model

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestAddressCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		addr    Address
		want    Coordinate
		wantErr bool
	}{
		{
			name: "geocoded address",
			addr: Address{Street: "100 Main St", Latitude: ptr(33.75), Longitude: ptr(-84.39)},
			want: Coordinate{Lat: 33.75, Lng: -84.39},
		},
		{
			name:    "missing both",
			addr:    Address{Street: "100 Main St"},
			wantErr: true,
		},
		{
			name:    "missing longitude",
			addr:    Address{Latitude: ptr(33.75)},
			wantErr: true,
		},
		{
			name:    "NaN latitude",
			addr:    Address{Latitude: ptr(math.NaN()), Longitude: ptr(-84.39)},
			wantErr: true,
		},
		{
			name:    "infinite longitude",
			addr:    Address{Latitude: ptr(33.75), Longitude: ptr(math.Inf(1))},
			wantErr: true,
		},
		{
			name: "zero is a real coordinate when explicitly set",
			addr: Address{Latitude: ptr(0), Longitude: ptr(0)},
			want: Coordinate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.addr.Coordinate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrMissingCoordinate))
				assert.False(t, tt.addr.HasCoordinates())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.addr.HasCoordinates())
		})
	}
}
