// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/provider"
	"github.com/nycapts/aptsearch/spatial"
)

// Filter holds the optional thresholds of a search. A nil bound is not
// applied, and a listing missing the attribute is always kept.
type Filter struct {
	RadiusKm    *float64
	MinPrice    *float64
	MaxPrice    *float64
	MinBedrooms *float64
	MaxBedrooms *float64
}

// HasPriceBounds reports whether a price filter was requested.
func (f Filter) HasPriceBounds() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// Query turns the filter into the hints passed to a provider.
func (f Filter) Query(center spatial.Point, limit int) provider.Query {
	return provider.Query{
		Center:      center,
		RadiusKm:    f.RadiusKm,
		MinPrice:    f.MinPrice,
		MaxPrice:    f.MaxPrice,
		MinBedrooms: f.MinBedrooms,
		MaxBedrooms: f.MaxBedrooms,
		Limit:       limit,
	}
}

func (f Filter) String() string {
	return fmt.Sprintf("radius=%s price=[%s,%s] bedrooms=[%s,%s]",
		describe(f.RadiusKm), describe(f.MinPrice), describe(f.MaxPrice),
		describe(f.MinBedrooms), describe(f.MaxBedrooms))
}

// Match reports whether l passes every requested bound.
func (f Filter) Match(l *listing.Listing) bool {
	return atMost(l.DistanceKm, f.RadiusKm) &&
		atLeast(l.Price, f.MinPrice) && atMost(l.Price, f.MaxPrice) &&
		atLeast(l.Bedrooms, f.MinBedrooms) && atMost(l.Bedrooms, f.MaxBedrooms)
}

// Apply returns the listings that Match, in their original order.
func (f Filter) Apply(listings []*listing.Listing) []*listing.Listing {
	out := make([]*listing.Listing, 0, len(listings))

	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}

	return out
}

func atLeast(v, bound *float64) bool {
	return v == nil || bound == nil || *v >= *bound
}

func atMost(v, bound *float64) bool {
	return v == nil || bound == nil || *v <= *bound
}

// Sort orders listings by ascending distance in place. Listings without a
// distance go last; ties keep their fetch order.
func Sort(listings []*listing.Listing) {
	slices.SortStableFunc(listings, func(a, b *listing.Listing) int {
		switch {
		case a.DistanceKm == nil && b.DistanceKm == nil:
			return 0
		case a.DistanceKm == nil:
			return 1
		case b.DistanceKm == nil:
			return -1
		default:
			return cmp.Compare(*a.DistanceKm, *b.DistanceKm)
		}
	})
}
