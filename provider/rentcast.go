// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
	"github.com/nycapts/aptsearch/utils/textutils"
)

// RentcastName identifies the RentCast provider.
const RentcastName = "rentcast_rental_listings"

const (
	DefaultRentcastURL = "https://api.rentcast.io/v1/listings/rental/long-term"
	rentcastReportURL  = "https://app.rentcast.io/property-reports?address="

	rentcastMaxLimit     = 500
	rentcastDefaultLimit = 100
	kmToMiles            = 0.621371
	minRadiusKm          = 0.1
)

// RentcastProvider queries RentCast's long-term rental listings.
type RentcastProvider struct {
	URL     string
	apiKey  string
	verbose bool
	client  *http.Client
}

// NewRentcastProvider fails with *config.Error when no API key is configured.
func NewRentcastProvider(s Settings) (*RentcastProvider, error) {
	key := strings.TrimSpace(s.RentcastAPIKey)
	if key == "" {
		return nil, &config.Error{
			Setting: "RENTCAST_API_KEY",
			Message: "the " + RentcastName + " provider requires an API key",
		}
	}

	endpoint := DefaultRentcastURL
	if s.RentcastURL != "" {
		endpoint = s.RentcastURL
	}

	return &RentcastProvider{
		URL:     endpoint,
		apiKey:  key,
		verbose: s.Verbose,
		client:  defaultClient(s.HTTPClient),
	}, nil
}

// Name implements Provider.
func (p *RentcastProvider) Name() string { return RentcastName }

// ReportsPrice implements PriceReporter.
func (p *RentcastProvider) ReportsPrice() bool { return true }

func (p *RentcastProvider) params(q Query) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Center.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Center.Lng, 'f', -1, 64))

	if q.RadiusKm != nil {
		miles := math.Max(*q.RadiusKm, minRadiusKm) * kmToMiles
		params.Set("radius", strconv.FormatFloat(miles, 'f', -1, 64))
	}

	params.Set("status", "Active")

	limit := rentcastDefaultLimit
	if q.Limit > 0 {
		limit = min(q.Limit, rentcastMaxLimit)
	}

	params.Set("limit", strconv.Itoa(limit))

	if r, ok := rangeParam(q.MinPrice, q.MaxPrice); ok {
		params.Set("price", r)
	}

	if r, ok := rangeParam(q.MinBedrooms, q.MaxBedrooms); ok {
		params.Set("bedrooms", r)
	}

	return params
}

// rangeParam renders RentCast's "min:max" syntax, "*" standing for an open bound.
func rangeParam(lo, hi *float64) (string, bool) {
	if lo == nil && hi == nil {
		return "", false
	}

	bound := func(v *float64) string {
		if v == nil {
			return "*"
		}

		return strconv.FormatFloat(*v, 'f', -1, 64)
	}

	return bound(lo) + ":" + bound(hi), true
}

// Fetch implements Provider.
func (p *RentcastProvider) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	rows, err := getJSONArray(ctx, p.client, p.Name(), p.URL, p.params(q), map[string]string{
		"X-Api-Key": p.apiKey,
	})
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && (perr.StatusCode == http.StatusUnauthorized || perr.StatusCode == http.StatusForbidden) {
			perr.Message = "invalid API key: " + perr.Message
		}

		return nil, err
	}

	skips := &skipLog{provider: p.Name(), verbose: p.verbose}
	listings := make([]*listing.Listing, 0, len(rows))

	for i, raw := range rows {
		l, err := p.normalize(raw)
		if err != nil {
			skips.skip(i, err)

			continue
		}

		listings = append(listings, l)
	}

	skips.summary(len(listings))

	return listings, nil
}

func (p *RentcastProvider) normalize(raw json.RawMessage) (*listing.Listing, error) {
	row, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	var errs []error

	str := func(key string) string {
		s, ok := textutils.AnyToString(row[key])
		if !ok {
			errs = append(errs, fmt.Errorf("field %s: unexpected %T", key, row[key]))
		}

		return s
	}

	num := func(key string) *float64 {
		v, ok, err := textutils.AnyToFloat(row[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", key, err))
		}

		if !ok || err != nil {
			return nil
		}

		return listing.Float(v)
	}

	id := firstNonEmpty(str("id"), str("listingId"), str("zillowId"), str("mlsId"))
	formatted := str("formattedAddress")
	line1 := str("addressLine1")
	city := str("city")
	state := str("state")
	zip := str("zipCode")
	propertyType := str("propertyType")
	status := str("status")

	price := num("price")
	bedrooms := num("bedrooms")
	bathrooms := num("bathrooms")
	lat := num("latitude")
	lng := num("longitude")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if id == "" {
		id = strings.Join(nonEmpty(line1, city, state, zip), "|")
		if id == "" {
			return nil, errors.New("record has no identifier")
		}
	}

	address := formatted
	if address == "" && line1 != "" {
		address = strings.Join(nonEmpty(line1, city, state, zip), ", ")
	}

	var location *spatial.Point
	if lat != nil && lng != nil {
		pt := spatial.Point{Lat: *lat, Lng: *lng}
		if err := pt.Validate(); err != nil {
			return nil, err
		}

		location = &pt
	}

	var titleParts []string
	if bedrooms != nil {
		titleParts = append(titleParts, strconv.FormatFloat(*bedrooms, 'g', -1, 64)+" BR")
	}

	if propertyType != "" {
		titleParts = append(titleParts, propertyType)
	}

	if status != "" {
		titleParts = append(titleParts, "("+status+")")
	}

	var reportURL string
	if formatted != "" {
		reportURL = rentcastReportURL + url.QueryEscape(formatted)
	}

	return &listing.Listing{
		ID:        id,
		Source:    RentcastName,
		Title:     strings.Join(titleParts, " "),
		Address:   address,
		Zipcode:   zip,
		Location:  location,
		Price:     price,
		Bedrooms:  bedrooms,
		Bathrooms: bathrooms,
		URL:       reportURL,
		Raw:       raw,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
