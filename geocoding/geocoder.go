// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves free-text addresses into coordinates.
package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nycapts/aptsearch/spatial"
)

// DefaultTimeout bounds every geocoding request.
const DefaultTimeout = 30 * time.Second

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Names lists the geocoders accepted by New.
var Names = []string{"nominatim", "google"}

// Options configures the geocoder built by New.
type Options struct {
	UserAgent        string
	GoogleMapsAPIKey string
	// HTTPClient overrides the default client, e.g. to enable tracing.
	HTTPClient *http.Client
	// BaseURL overrides the service endpoint.
	BaseURL string
}

// UnknownGeocoderError is returned by New for an unsupported name.
type UnknownGeocoderError struct {
	Name string
}

func (e *UnknownGeocoderError) Error() string {
	return fmt.Sprintf("unknown geocoder %q (available: %s)", e.Name, strings.Join(Names, ", "))
}

// New builds the geocoder registered under name.
func New(name string, opts Options) (Geocoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nominatim":
		g := NewNominatimGeocoder(opts.UserAgent, opts.HTTPClient)
		if opts.BaseURL != "" {
			g.BaseURL = opts.BaseURL
		}

		return g, nil
	case "google", "google_maps":
		if opts.GoogleMapsAPIKey == "" {
			return nil, &MissingAPIKeyError{Geocoder: "google"}
		}

		g := NewGoogleMapsGeocoder(opts.GoogleMapsAPIKey, opts.HTTPClient)
		if opts.BaseURL != "" {
			g.BaseURL = opts.BaseURL
		}

		return g, nil
	default:
		return nil, &UnknownGeocoderError{Name: name}
	}
}

// MissingAPIKeyError is returned by New when the geocoder needs a key.
type MissingAPIKeyError struct {
	Geocoder string
}

func (e *MissingAPIKeyError) Error() string {
	return fmt.Sprintf("geocoder %q requires GOOGLE_MAPS_API_KEY (or Application Default Credentials)", e.Geocoder)
}

// FixedGeocoder answers every request with the same point, without any
// network call. It backs the --lat/--lon center override.
type FixedGeocoder struct {
	Point spatial.Point
}

// Geocode implements Geocoder.
func (g FixedGeocoder) Geocode(_ context.Context, address string) (*Result, error) {
	if err := g.Point.Validate(); err != nil {
		return nil, &GeocodeError{
			Type:    ErrorTypeInvalidRequest,
			Address: address,
			Message: "invalid center coordinates",
			Err:     err,
		}
	}

	return &Result{
		Point:       g.Point,
		Confidence:  "high",
		Provider:    "fixed",
		DisplayName: fmt.Sprintf("%.6f, %.6f", g.Point.Lat, g.Point.Lng),
	}, nil
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}

	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
