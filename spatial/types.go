// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Validate reports why the point cannot be used for distance computations.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("spatial: non-finite coordinates (%v, %v)", p.Lat, p.Lng)
	}

	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("spatial: latitude must be between -90 and 90 (got %f)", p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("spatial: longitude must be between -180 and 180 (got %f)", p.Lng)
	}

	return nil
}

// Valid is a shorthand for Validate() == nil.
func (p Point) Valid() bool {
	return p.Validate() == nil
}

// Haversine calculates the great-circle distance between two points in kilometers.
// Invalid input (NaN) propagates to the result.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm returns the haversine distance to other, in kilometers.
func (p Point) DistanceKm(other Point) float64 {
	return Haversine(p.Lat, p.Lng, other.Lat, other.Lng)
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// BoundingBox returns a box enclosing every point within radiusKm of center.
// When the circle reaches a pole the longitude span is the whole range.
// Longitudes are clamped to [-180, 180] rather than wrapped, so a circle
// crossing the antimeridian gets a box that misses the far side.
func BoundingBox(center Point, radiusKm float64) Bounds {
	r := radiusKm / EarthRadiusKm
	dLat := r * 180 / math.Pi

	b := Bounds{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if b.MinLat == -90 || b.MaxLat == 90 || math.Sin(r) >= cosLat {
		return b
	}

	dLng := math.Asin(math.Sin(r)/cosLat) * 180 / math.Pi
	b.MinLng = math.Max(center.Lng-dLng, -180)
	b.MaxLng = math.Min(center.Lng+dLng, 180)

	return b
}

// H3Cell returns the H3 cell containing p at the given resolution.
func (p Point) H3Cell(res int) (uint64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return uint64(cell), nil
}
