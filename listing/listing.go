// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package listing defines the normalized record shared by every provider.
package listing

import (
	"encoding/json"

	"github.com/nycapts/aptsearch/spatial"
)

// Listing is one apartment-like offering normalized from an upstream record.
//
// Providers fill every field except DistanceKm, which only the pipeline sets
// once the search center is known. Empty strings and nil pointers mean the
// upstream source did not expose the value.
type Listing struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	Address      string         `json:"address,omitempty"`
	Neighborhood string         `json:"neighborhood,omitempty"`
	Zipcode      string         `json:"zipcode,omitempty"`
	Location     *spatial.Point `json:"location,omitempty"`
	Price        *float64       `json:"price,omitempty"`
	Bedrooms     *float64       `json:"bedrooms,omitempty"`
	Bathrooms    *float64       `json:"bathrooms,omitempty"`
	URL          string         `json:"url,omitempty"`
	DistanceKm   *float64       `json:"distance_km,omitempty"`

	// Raw is the upstream record as received, for display and debugging only.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Key identifies the listing within a single run.
func (l *Listing) Key() string {
	return l.Source + ":" + l.ID
}

// HasLocation reports whether the listing carries usable coordinates.
func (l *Listing) HasLocation() bool {
	return l.Location != nil && l.Location.Valid()
}

// Label is the short human description used by the renderers: the title when
// present, otherwise the address.
func (l *Listing) Label() string {
	switch {
	case l.Title != "" && l.Address != "":
		return l.Title + " · " + l.Address
	case l.Title != "":
		return l.Title
	default:
		return l.Address
	}
}

// H3Cell returns the H3 cell of the listing location at res, or 0 when the
// listing has no usable coordinates.
func (l *Listing) H3Cell(res int) uint64 {
	if !l.HasLocation() {
		return 0
	}

	cell, err := l.Location.H3Cell(res)
	if err != nil {
		return 0
	}

	return cell
}

// Float returns a pointer to v, for populating optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
