// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package provider adapts upstream data sources into listings.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
)

// Provider fetches raw records from one upstream source and maps them into
// listings. Providers never set Listing.DistanceKm.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]*listing.Listing, error)
}

// PriceReporter is implemented by providers that know whether their upstream
// exposes rents.
type PriceReporter interface {
	ReportsPrice() bool
}

// ReportsPrice reports whether p can honor price filters. Providers that do
// not say are assumed to.
func ReportsPrice(p Provider) bool {
	if pr, ok := p.(PriceReporter); ok {
		return pr.ReportsPrice()
	}

	return true
}

// Query carries the search context a provider may push upstream. Providers
// are free to ignore any of it; the pipeline filters again afterwards.
type Query struct {
	Center      spatial.Point
	RadiusKm    *float64
	MinPrice    *float64
	MaxPrice    *float64
	MinBedrooms *float64
	MaxBedrooms *float64
	// Limit is the maximum number of results wanted, 0 for no preference.
	Limit int
}

// Settings holds the process-wide configuration handed to constructors.
// Constructors never read the environment themselves.
type Settings struct {
	RentcastAPIKey      string
	NYCOpenDataAppToken string
	// OpenDataBoundingBox enables server-side bounding box filtering for the
	// open data provider when a radius is requested.
	OpenDataBoundingBox bool
	// Verbose logs every skipped record instead of a summary.
	Verbose    bool
	HTTPClient *http.Client
	// OpenDataURL and RentcastURL override the upstream endpoints.
	OpenDataURL string
	RentcastURL string
}

// ProviderError reports that an upstream fetch failed as a whole.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
