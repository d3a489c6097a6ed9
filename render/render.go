// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package render formats listings for people (table) and for scripts
// (json, jsonl, csv). Rendering has no side effects beyond the writer.
//
// An empty result set still has a defined output in every format: the
// table prints NoResults, json prints an empty array, csv prints only the
// header row and jsonl prints nothing, since a zero-record stream is the
// valid empty document for line-delimited JSON. Callers that want a
// human-readable notice for the machine formats log NoResults themselves.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/utils/textutils"
)

// Format selects an output layout.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
)

// Formats lists the supported formats, default first.
var Formats = []Format{FormatTable, FormatJSON, FormatJSONL, FormatCSV}

// NoResults is printed by the table format for an empty result set.
const NoResults = "No apartments found."

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return FormatTable, nil
	}

	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}

	names := make([]string, 0, len(Formats))
	for _, f := range Formats {
		names = append(names, string(f))
	}

	return "", &config.Error{
		Setting: "--output",
		Message: fmt.Sprintf("unknown format %q (available: %s)", s, strings.Join(names, ", ")),
	}
}

// Options tunes rendering.
type Options struct {
	// Color enables ANSI colouring of the table header.
	Color bool
	// IncludeRaw keeps the upstream record in json and jsonl output.
	IncludeRaw bool
}

// Render writes listings to w in the given format.
func Render(w io.Writer, listings []*listing.Listing, format Format, opts Options) error {
	switch format {
	case FormatTable, "":
		return renderTable(w, listings, opts)
	case FormatJSON:
		return renderJSON(w, listings, opts)
	case FormatJSONL:
		return renderJSONL(w, listings, opts)
	case FormatCSV:
		return renderCSV(w, listings)
	default:
		_, err := ParseFormat(string(format))

		return err
	}
}

func stripRaw(listings []*listing.Listing, opts Options) []*listing.Listing {
	out := make([]*listing.Listing, 0, len(listings))

	for _, l := range listings {
		if !opts.IncludeRaw && l.Raw != nil {
			c := *l
			c.Raw = nil
			l = &c
		}

		out = append(out, l)
	}

	return out
}

func renderJSON(w io.Writer, listings []*listing.Listing, opts Options) error {
	data, err := json.MarshalIndent(stripRaw(listings, opts), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}

	return nil
}

func renderJSONL(w io.Writer, listings []*listing.Listing, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, l := range stripRaw(listings, opts) {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("encoding listing %s: %w", l.Key(), err)
		}
	}

	return nil
}

var csvHeader = []string{
	"source", "id", "title", "address", "neighborhood", "zipcode",
	"latitude", "longitude", "price", "bedrooms", "bathrooms", "distance_km", "url",
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func renderCSV(w io.Writer, listings []*listing.Listing) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, l := range listings {
		var lat, lng string
		if l.Location != nil {
			lat = strconv.FormatFloat(l.Location.Lat, 'f', -1, 64)
			lng = strconv.FormatFloat(l.Location.Lng, 'f', -1, 64)
		}

		var dist string
		if l.DistanceKm != nil {
			dist = strconv.FormatFloat(*l.DistanceKm, 'f', 3, 64)
		}

		record := []string{
			l.Source, l.ID, l.Title, l.Address, l.Neighborhood, l.Zipcode,
			lat, lng, csvFloat(l.Price), csvFloat(l.Bedrooms), csvFloat(l.Bathrooms), dist, l.URL,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record %s: %w", l.Key(), err)
		}
	}

	cw.Flush()

	return cw.Error()
}

const (
	sourceWidth   = 27
	labelWidth    = 56
	distanceWidth = 9
	priceWidth    = 9
	bedsWidth     = 4
)

func renderTable(w io.Writer, listings []*listing.Listing, opts Options) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintln(w, NoResults)

		return err
	}

	header := color.New(color.Bold, color.FgCyan)
	if opts.Color {
		header.EnableColor()
	} else {
		header.DisableColor()
	}

	line := func(l, m, r string) string {
		return l + "─" + strings.Join([]string{
			strings.Repeat("─", sourceWidth),
			strings.Repeat("─", labelWidth),
			strings.Repeat("─", distanceWidth),
			strings.Repeat("─", priceWidth),
			strings.Repeat("─", bedsWidth),
		}, "─"+m+"─") + "─" + r + "\n"
	}

	var b strings.Builder

	b.WriteString(line("╭", "┬", "╮"))
	fmt.Fprintf(&b, "│ %s │ %s │ %s │ %s │ %s │\n",
		header.Sprintf("%-*s", sourceWidth, "Source"),
		header.Sprintf("%-*s", labelWidth, "Title / Address"),
		header.Sprintf("%*s", distanceWidth, "Distance"),
		header.Sprintf("%*s", priceWidth, "Price"),
		header.Sprintf("%*s", bedsWidth, "Beds"),
	)
	b.WriteString(line("├", "┼", "┤"))

	for _, l := range listings {
		fmt.Fprintf(&b, "│ %-*s │ %-*s │ %*s │ %*s │ %*s │\n",
			sourceWidth, textutils.Truncate(l.Source, sourceWidth),
			labelWidth, textutils.Truncate(orDash(l.Label()), labelWidth),
			distanceWidth, distance(l.DistanceKm),
			priceWidth, price(l.Price),
			bedsWidth, beds(l.Bedrooms),
		)
	}

	b.WriteString(line("╰", "┴", "╯"))
	fmt.Fprintf(&b, "%d apartments\n", len(listings))

	_, err := io.WriteString(w, b.String())

	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func distance(v *float64) string {
	if v == nil {
		return "-"
	}

	return fmt.Sprintf("%.2f km", *v)
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}

	return textutils.FormatMoney(*v)
}

func beds(v *float64) string {
	if v == nil {
		return "-"
	}

	return textutils.FormatNumber(*v)
}
