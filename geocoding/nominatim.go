// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nycapts/aptsearch/spatial"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// DefaultUserAgent identifies the tool to Nominatim, which rejects anonymous clients.
const DefaultUserAgent = "nyc-apartments-scraper"

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	BaseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(userAgent string, client *http.Client) *NominatimGeocoder {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &NominatimGeocoder{
		BaseURL:    DefaultNominatimURL,
		userAgent:  userAgent,
		httpClient: defaultClient(client),
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	AddressType string  `json:"addresstype"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &GeocodeError{
			Type:    ErrorTypeInvalidRequest,
			Message: "empty address",
		}
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	reqURL := strings.TrimRight(g.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &GeocodeError{
			Type:    ErrorTypeInvalidRequest,
			Address: address,
			Message: "building request",
			Err:     err,
		}
	}

	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(address, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		geoErr := ClassifyHTTPError(resp.StatusCode)
		geoErr.Address = address

		return nil, geoErr
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, &GeocodeError{
			Type:    ErrorTypeUnknown,
			Address: address,
			Message: "decoding response",
			Err:     err,
		}
	}

	if len(places) == 0 {
		return nil, &GeocodeError{
			Type:    ErrorTypeNotFound,
			Address: address,
			Message: "no results found",
		}
	}

	place := places[0]

	lat, errLat := strconv.ParseFloat(place.Lat, 64)
	lng, errLng := strconv.ParseFloat(place.Lon, 64)
	point := spatial.Point{Lat: lat, Lng: lng}

	if errLat != nil || errLng != nil || !point.Valid() {
		return nil, &GeocodeError{
			Type:    ErrorTypeUnknown,
			Address: address,
			Message: fmt.Sprintf("invalid coordinates in response (%q, %q)", place.Lat, place.Lon),
		}
	}

	// Nominatim has no location_type; buildings and house numbers are
	// precise, anything larger is an area centroid.
	confidence := "medium"

	switch place.AddressType {
	case "building", "house", "house_number", "amenity":
		confidence = "high"
	case "city", "state", "country", "county", "borough":
		confidence = "low"
	}

	return &Result{
		Point:       point,
		Confidence:  confidence,
		Provider:    "nominatim",
		DisplayName: place.DisplayName,
	}, nil
}
