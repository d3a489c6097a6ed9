// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []*listing.Listing {
	return []*listing.Listing{
		{
			ID:         "a1",
			Source:     "rentcast_rental_listings",
			Title:      "1 BR Apartment (Active)",
			Address:    "250 W 43rd St, New York, NY 10036",
			Location:   &spatial.Point{Lat: 40.7577, Lng: -73.9881},
			Price:      listing.Float(3200),
			Bedrooms:   listing.Float(1),
			DistanceKm: listing.Float(0.2134),
			Raw:        json.RawMessage(`{"id":"a1"}`),
		},
		{
			ID:      "928",
			Source:  "nyc_open_data_hny_buildings",
			Address: "1 Main Street, Queens",
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", " jsonl ", "csv", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("xml")

	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "--output", cfgErr.Setting)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatTable, Options{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)

	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, lines[1], "Title / Address")
	assert.NotContains(t, lines[1], "\x1b[", "no colour unless requested")
	assert.Contains(t, lines[3], "1 BR Apartment (Active) · 250 W 43rd St")
	assert.Contains(t, lines[3], "0.21 km")
	assert.Contains(t, lines[3], "$3,200")
	assert.Contains(t, lines[4], "1 Main Street, Queens")
	assert.True(t, strings.HasPrefix(lines[5], "╰"))
	assert.Equal(t, "2 apartments", lines[6])

	width := len([]rune(lines[0]))
	for _, l := range lines[:6] {
		assert.Len(t, []rune(l), width, "misaligned row %q", l)
	}
}

func TestRenderTableColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatTable, Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRenderEmpty(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatTable, NoResults + "\n"},
		{FormatJSON, "[]\n"},
		{FormatJSONL, ""},
		{FormatCSV, strings.Join(csvHeader, ",") + "\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, nil, tt.format, Options{}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRenderJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatJSONL, Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first listing.Listing
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a1", first.ID)
	assert.Empty(t, first.Raw, "raw records are only kept on request")
	assert.NotContains(t, lines[1], "distance_km", "unset distance is omitted, never zero")
}

func TestRenderJSONIncludeRaw(t *testing.T) {
	in := fixture()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, in, FormatJSON, Options{IncludeRaw: true}))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{"id": "a1"}, out[0]["raw"])

	buf.Reset()
	require.NoError(t, Render(&buf, in, FormatJSON, Options{}))
	assert.NotContains(t, buf.String(), `"raw"`)
	assert.NotNil(t, in[0].Raw, "rendering must not modify listings")
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, fixture(), FormatCSV, Options{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"rentcast_rental_listings", "a1", "1 BR Apartment (Active)", "250 W 43rd St, New York, NY 10036", "", "",
		"40.7577", "-73.9881", "3200", "1", "", "0.213", "",
	}, records[1])
	assert.Equal(t, "", records[2][11])
}

func TestRenderUnknownFormat(t *testing.T) {
	var cfgErr *config.Error
	assert.True(t, errors.As(Render(&bytes.Buffer{}, nil, Format("xml"), Options{}), &cfgErr))
}
