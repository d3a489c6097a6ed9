// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
	"github.com/nycapts/aptsearch/utils/textutils"
	"github.com/schollz/progressbar/v3"
)

// OpenDataName identifies the NYC Open Data provider.
const OpenDataName = "nyc_open_data_hny_buildings"

// Housing New York Units by Building (HPD) on the NYC Open Data Socrata portal.
const (
	DefaultOpenDataURL = "https://data.cityofnewyork.us/resource/hg8x-zxpr.json"
	openDataMaxRows    = 5000
)

// bedroomFields maps unit-count columns to the bedroom count they describe.
var bedroomFields = []struct {
	field    string
	bedrooms float64
}{
	{"studio_units", 0},
	{"_1_br_units", 1},
	{"_2_br_units", 2},
	{"_3_br_units", 3},
	{"_4_br_units", 4},
	{"_5_br_units", 5},
	{"_6_br_units", 6},
}

// NYCOpenDataProvider is backed by HPD's Housing New York Units by Building
// dataset. It is building-level affordable housing data rather than a live
// listing feed, and it carries no rents.
type NYCOpenDataProvider struct {
	URL         string
	appToken    string
	boundingBox bool
	verbose     bool
	client      *http.Client
}

// NewNYCOpenDataProvider creates the provider; the app token is optional.
func NewNYCOpenDataProvider(s Settings) *NYCOpenDataProvider {
	endpoint := DefaultOpenDataURL
	if s.OpenDataURL != "" {
		endpoint = s.OpenDataURL
	}

	return &NYCOpenDataProvider{
		URL:         endpoint,
		appToken:    s.NYCOpenDataAppToken,
		boundingBox: s.OpenDataBoundingBox,
		verbose:     s.Verbose,
		client:      defaultClient(s.HTTPClient),
	}
}

// Name implements Provider.
func (p *NYCOpenDataProvider) Name() string { return OpenDataName }

// ReportsPrice implements PriceReporter.
func (p *NYCOpenDataProvider) ReportsPrice() bool { return false }

func (p *NYCOpenDataProvider) params(q Query) url.Values {
	params := url.Values{}
	params.Set("$limit", strconv.Itoa(openDataMaxRows))

	if p.boundingBox && q.RadiusKm != nil && q.Center.Valid() {
		b := spatial.BoundingBox(q.Center, *q.RadiusKm)
		params.Set("$where", fmt.Sprintf(
			"latitude between %s and %s and longitude between %s and %s",
			formatCoord(b.MinLat), formatCoord(b.MaxLat),
			formatCoord(b.MinLng), formatCoord(b.MaxLng),
		))
	}

	return params
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Fetch implements Provider.
func (p *NYCOpenDataProvider) Fetch(ctx context.Context, q Query) ([]*listing.Listing, error) {
	headers := map[string]string{}
	if p.appToken != "" {
		headers["X-App-Token"] = p.appToken
	}

	rows, err := getJSONArray(ctx, p.client, p.Name(), p.URL, p.params(q), headers)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("Normalizing "+p.Name()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	skips := &skipLog{provider: p.Name(), verbose: p.verbose}
	listings := make([]*listing.Listing, 0, len(rows))

	for i, raw := range rows {
		if bar != nil {
			_ = bar.Add(1)
		}

		l, err := p.normalize(raw)
		if err != nil {
			skips.skip(i, err)

			continue
		}

		listings = append(listings, l)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	skips.summary(len(listings))

	return listings, nil
}

func (p *NYCOpenDataProvider) normalize(raw json.RawMessage) (*listing.Listing, error) {
	row, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	str := func(keys ...string) (string, error) {
		for _, k := range keys {
			s, ok := textutils.AnyToString(row[k])
			if !ok {
				return "", fmt.Errorf("field %s: unexpected %T", k, row[k])
			}

			if s != "" {
				return s, nil
			}
		}

		return "", nil
	}

	var errs []error

	must := func(s string, err error) string {
		if err != nil {
			errs = append(errs, err)
		}

		return s
	}

	buildingID := must(str("building_id", "buildingid"))
	projectID := must(str("project_id", "projectid"))
	houseNumber := must(str("house_number", "low_house_number", "high_house_number"))
	street := textutils.DisplayCase(must(str("street_name", "streetname")))
	borough := textutils.DisplayCase(must(str("borough", "boro")))
	title := must(str("project_name"))
	neighborhood := must(str("nta_neighborhood_tabulation_area", "nta_name", "neighborhood"))
	zipcode := must(str("postcode", "zip"))
	constructionType := must(str("reporting_construction_type"))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	id := buildingID
	if id == "" {
		id = projectID
	}

	if id == "" {
		parts := []string{houseNumber, street, borough}
		if strings.Join(parts, "") == "" {
			return nil, errors.New("record has no identifier")
		}

		id = strings.Join(parts, "|")
	}

	address := strings.Join(nonEmpty(houseNumber, street), " ")
	if borough != "" {
		address = strings.Join(nonEmpty(address, borough), ", ")
	}

	location, err := openDataLocation(row)
	if err != nil {
		return nil, err
	}

	bedrooms, err := openDataBedrooms(row)
	if err != nil {
		return nil, err
	}

	totalUnits, hasTotal, err := textutils.AnyToFloat(row["total_units"])
	if err != nil {
		return nil, fmt.Errorf("field total_units: %w", err)
	}

	var description string
	if hasTotal {
		description = fmt.Sprintf("%s units", textutils.FormatNumber(totalUnits))
		if constructionType != "" {
			description += " · " + constructionType
		}
	} else {
		description = constructionType
	}

	return &listing.Listing{
		ID:           id,
		Source:       OpenDataName,
		Title:        title,
		Description:  description,
		Address:      address,
		Neighborhood: neighborhood,
		Zipcode:      zipcode,
		Location:     location,
		Bedrooms:     bedrooms,
		Raw:          raw,
	}, nil
}

// openDataLocation reads latitude/longitude columns, falling back to a
// GeoJSON point in "location". Rows without coordinates yield nil.
func openDataLocation(row map[string]any) (*spatial.Point, error) {
	lat, hasLat, err := textutils.AnyToFloat(row["latitude"])
	if err != nil {
		return nil, fmt.Errorf("field latitude: %w", err)
	}

	lng, hasLng, err := textutils.AnyToFloat(row["longitude"])
	if err != nil {
		return nil, fmt.Errorf("field longitude: %w", err)
	}

	if !hasLat || !hasLng {
		loc, ok := row["location"].(map[string]any)
		if !ok {
			return nil, nil
		}

		coords, ok := loc["coordinates"].([]any)
		if !ok || len(coords) != 2 {
			return nil, nil
		}

		lng, hasLng, err = textutils.AnyToFloat(coords[0])
		if err != nil {
			return nil, fmt.Errorf("field location: %w", err)
		}

		lat, hasLat, err = textutils.AnyToFloat(coords[1])
		if err != nil {
			return nil, fmt.Errorf("field location: %w", err)
		}

		if !hasLat || !hasLng {
			return nil, nil
		}
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// openDataBedrooms returns the largest bedroom class with at least one unit.
func openDataBedrooms(row map[string]any) (*float64, error) {
	var bedrooms *float64

	for _, f := range bedroomFields {
		count, ok, err := textutils.AnyToFloat(row[f.field])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.field, err)
		}

		if ok && count > 0 {
			bedrooms = listing.Float(f.bedrooms)
		}
	}

	return bedrooms, nil
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}
