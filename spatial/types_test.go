// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var timesSquare = Point{Lat: 40.7580, Lng: -73.9855}

func TestHaversine(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{
			name: "same point",
			a:    timesSquare,
			b:    timesSquare,
			want: 0,
			tol:  1e-9,
		},
		{
			name: "times square to empire state building",
			a:    timesSquare,
			b:    Point{Lat: 40.7484, Lng: -73.9857},
			want: 1.07,
			tol:  0.01,
		},
		{
			name: "new york to london",
			a:    Point{Lat: 40.7128, Lng: -74.0060},
			b:    Point{Lat: 51.5074, Lng: -0.1278},
			want: 5570,
			tol:  15,
		},
		{
			name: "one degree of latitude",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 1, Lng: 0},
			want: 111.19,
			tol:  0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a.Lat, tt.a.Lng, tt.b.Lat, tt.b.Lng)
			assert.InDelta(t, tt.want, got, tt.tol)
			assert.InDelta(t, got, tt.b.DistanceKm(tt.a), 1e-9, "distance must be symmetric")
		})
	}
}

func TestHaversineNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Haversine(math.NaN(), 0, 0, 0)))
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{name: "times square", p: timesSquare},
		{name: "poles and antimeridian", p: Point{Lat: -90, Lng: 180}},
		{name: "latitude too high", p: Point{Lat: 91, Lng: 0}, wantErr: true},
		{name: "longitude too low", p: Point{Lat: 0, Lng: -181}, wantErr: true},
		{name: "nan", p: Point{Lat: math.NaN(), Lng: 0}, wantErr: true},
		{name: "infinite", p: Point{Lat: 0, Lng: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, tt.p.Valid())
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.p.Valid())
			}
		})
	}
}

func inside(b Bounds, p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

func TestBoundingBoxEnclosesRadius(t *testing.T) {
	const radius = 3.0

	b := BoundingBox(timesSquare, radius)
	assert.True(t, inside(b, timesSquare))

	// Points exactly radius km away along the axes must be inside the box.
	north := Point{Lat: timesSquare.Lat + radius/EarthRadiusKm*180/math.Pi, Lng: timesSquare.Lng}
	assert.InDelta(t, radius, timesSquare.DistanceKm(north), 1e-6)
	assert.True(t, inside(b, north))

	east := Point{Lat: timesSquare.Lat, Lng: b.MaxLng}
	assert.GreaterOrEqual(t, timesSquare.DistanceKm(east), radius-1e-6)

	far := Point{Lat: 40.9, Lng: -73.9855}
	assert.False(t, inside(b, far))
}

func TestBoundingBoxNearPole(t *testing.T) {
	b := BoundingBox(Point{Lat: 89.99, Lng: 10}, 50)
	assert.Equal(t, 90.0, b.MaxLat)
	assert.Equal(t, -180.0, b.MinLng)
	assert.Equal(t, 180.0, b.MaxLng)
}

func TestBoundingBoxClampsAtAntimeridian(t *testing.T) {
	b := BoundingBox(Point{Lat: 0, Lng: 179.99}, 50)
	assert.Equal(t, 180.0, b.MaxLng)
	assert.Less(t, b.MinLng, 179.99)
	assert.False(t, inside(b, Point{Lat: 0, Lng: -179.99}), "longitudes are clamped, not wrapped")
}

func TestH3Cell(t *testing.T) {
	cell, err := timesSquare.H3Cell(8)
	require.NoError(t, err)
	assert.NotZero(t, cell)

	again, err := timesSquare.H3Cell(8)
	require.NoError(t, err)
	assert.Equal(t, cell, again)

	coarse, err := timesSquare.H3Cell(1)
	require.NoError(t, err)
	assert.NotEqual(t, cell, coarse)

	_, err = timesSquare.H3Cell(16)
	assert.Error(t, err)
}

func TestPointValue(t *testing.T) {
	v, err := Point{Lat: 1.5, Lng: -2.25}.Value()
	require.NoError(t, err)
	assert.Equal(t, "POINT(-2.250000 1.500000)", v)
}
