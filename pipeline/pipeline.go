// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs one search: geocode the center, fetch from a
// provider, then annotate, filter, sort and limit the listings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nycapts/aptsearch/geocoding"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/provider"
	"github.com/nycapts/aptsearch/spatial"
)

// Request describes one search run.
type Request struct {
	// Address is geocoded unless Center is set.
	Address string
	// Center overrides geocoding with explicit coordinates.
	Center *spatial.Point
	Filter Filter
	// Limit caps the number of returned listings, 0 for no cap.
	Limit int
}

// Result is the outcome of a run.
type Result struct {
	Center   geocoding.Result
	Listings []*listing.Listing
	// Fetched is the number of listings the provider returned.
	Fetched int
	// Duplicates is the number of listings dropped for a repeated source and id.
	Duplicates int
}

// Run executes the pipeline. Geocoding failures are returned as
// *geocoding.GeocodeError and fetch failures as *provider.ProviderError;
// neither is retried.
func Run(ctx context.Context, g geocoding.Geocoder, p provider.Provider, req Request) (*Result, error) {
	if req.Center != nil {
		g = geocoding.FixedGeocoder{Point: *req.Center}
	}

	if g == nil {
		return nil, errors.New("pipeline: no geocoder and no explicit center")
	}

	if req.Center == nil && strings.TrimSpace(req.Address) == "" {
		return nil, &geocoding.GeocodeError{
			Type:    geocoding.ErrorTypeInvalidRequest,
			Message: "empty center address",
		}
	}

	center, err := g.Geocode(ctx, req.Address)
	if err != nil {
		var geoErr *geocoding.GeocodeError
		if errors.As(err, &geoErr) {
			return nil, err
		}

		return nil, &geocoding.GeocodeError{Type: geocoding.ErrorTypeUnknown, Address: req.Address, Message: "geocoding failed", Err: err}
	}

	log.Printf("📍 Center: %s (%.5f, %.5f via %s)", center.DisplayName, center.Point.Lat, center.Point.Lng, center.Provider)

	log.Printf("🔎 Filter: %s", req.Filter)

	if req.Filter.HasPriceBounds() && !provider.ReportsPrice(p) {
		log.Printf("⚠️  Provider %s does not report prices; the price filter will not exclude its listings", p.Name())
	}

	start := time.Now()

	fetched, err := p.Fetch(ctx, req.Filter.Query(center.Point, req.Limit))
	if err != nil {
		var perr *provider.ProviderError
		if errors.As(err, &perr) {
			return nil, err
		}

		return nil, &provider.ProviderError{Provider: p.Name(), Message: "fetch failed", Err: err}
	}

	unique, dups := Dedupe(fetched)
	annotated := Annotate(unique, center.Point)
	kept := req.Filter.Apply(annotated)
	Sort(kept)
	kept = Limit(kept, req.Limit)

	log.Printf("✅ %s: %d fetched, %d duplicates, %d after filtering (%v)",
		p.Name(), len(fetched), dups, len(kept), time.Since(start).Round(time.Millisecond))

	return &Result{
		Center:     *center,
		Listings:   kept,
		Fetched:    len(fetched),
		Duplicates: dups,
	}, nil
}

// Dedupe drops listings whose Key was already seen, keeping the first.
func Dedupe(listings []*listing.Listing) ([]*listing.Listing, int) {
	seen := make(map[string]struct{}, len(listings))
	out := make([]*listing.Listing, 0, len(listings))

	for _, l := range listings {
		if l == nil {
			continue
		}

		if _, ok := seen[l.Key()]; ok {
			continue
		}

		seen[l.Key()] = struct{}{}
		out = append(out, l)
	}

	return out, len(listings) - len(out)
}

// Annotate returns copies of listings with DistanceKm set from center. A
// listing without usable coordinates keeps a nil distance.
func Annotate(listings []*listing.Listing, center spatial.Point) []*listing.Listing {
	out := make([]*listing.Listing, 0, len(listings))

	for _, l := range listings {
		c := *l
		c.DistanceKm = nil

		if center.Valid() && l.HasLocation() {
			d := center.DistanceKm(*l.Location)
			c.DistanceKm = &d
		}

		out = append(out, &c)
	}

	return out
}

// Limit truncates listings to n entries when n is positive.
func Limit(listings []*listing.Listing, n int) []*listing.Listing {
	if n > 0 && len(listings) > n {
		return listings[:n]
	}

	return listings
}

func describe(v *float64) string {
	if v == nil {
		return "-"
	}

	return fmt.Sprintf("%g", *v)
}
