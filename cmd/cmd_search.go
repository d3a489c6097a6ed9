// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/geocoding"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/pipeline"
	"github.com/nycapts/aptsearch/provider"
	"github.com/nycapts/aptsearch/render"
	"github.com/nycapts/aptsearch/spatial"
	"github.com/nycapts/aptsearch/store"
	"github.com/nycapts/aptsearch/utils/httputils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type searchOptions struct {
	centerAddress string
	lat, lon      float64
	radiusKm      float64
	providerName  string
	output        string
	minPrice      float64
	maxPrice      float64
	minBedrooms   float64
	maxBedrooms   float64
	limit         int
	geocoder      string
	openDataBBox  bool
	saveJSON      string
	exportDuckDB  string
	traceHTTP     bool
	traceHTTPBody bool
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search apartments around an address",
		Long: `Geocodes --center-address (or uses --lat/--lon), fetches records from the
selected provider and prints them nearest first.

Filters are inclusive when a record lacks the attribute: a listing without a
rent is never excluded by --min-price/--max-price, and one without coordinates
is never excluded by --radius-km (it is listed last).

$ aptsearch search --center-address "Times Square, New York" --radius-km 3
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.centerAddress, "center-address", "", "address used as the search center (geocoded)")
	f.Float64Var(&opts.lat, "lat", 0, "center latitude, skips geocoding when given with --lon")
	f.Float64Var(&opts.lon, "lon", 0, "center longitude, skips geocoding when given with --lat")
	f.Float64Var(&opts.radiusKm, "radius-km", 0, "keep listings within this distance of the center")
	f.StringVarP(&opts.providerName, "provider", "p", "", "data source: "+strings.Join(provider.Names(), ", "))
	f.StringVarP(&opts.output, "output", "o", "", "output format: table, json, jsonl or csv")
	f.Float64Var(&opts.minPrice, "min-price", 0, "minimum monthly rent in dollars")
	f.Float64Var(&opts.maxPrice, "max-price", 0, "maximum monthly rent in dollars")
	f.Float64Var(&opts.minBedrooms, "min-bedrooms", 0, "minimum number of bedrooms")
	f.Float64Var(&opts.maxBedrooms, "max-bedrooms", 0, "maximum number of bedrooms")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of results to show")
	f.StringVar(&opts.geocoder, "geocoder", "", "geocoding service: "+strings.Join(geocoding.Names, ", "))
	f.BoolVar(&opts.openDataBBox, "open-data-bbox", false, "filter open data server-side with a bounding box (drops rows without coordinates)")
	f.StringVar(&opts.saveJSON, "save-json", "", "also write the full result set, raw records included, to this JSON file")
	f.StringVar(&opts.exportDuckDB, "export-duckdb", "", "append the run to this DuckDB database")
	f.BoolVar(&opts.traceHTTP, "trace-http", false, "dump HTTP requests and responses to stderr")
	f.BoolVar(&opts.traceHTTPBody, "trace-http-body", false, "include bodies in --trace-http dumps")

	return cmd
}

// optional returns the flag value only when the user set it.
func optional(flags *pflag.FlagSet, name string, v float64) *float64 {
	if !flags.Changed(name) {
		return nil
	}

	return listing.Float(v)
}

// request validates the flags and builds the pipeline request. Settings from
// the config file fill in what the flags leave unset.
func (o *searchOptions) request(flags *pflag.FlagSet, s *config.Settings) (pipeline.Request, error) {
	req := pipeline.Request{
		Address: strings.TrimSpace(o.centerAddress),
		Filter: pipeline.Filter{
			RadiusKm:    optional(flags, "radius-km", o.radiusKm),
			MinPrice:    optional(flags, "min-price", o.minPrice),
			MaxPrice:    optional(flags, "max-price", o.maxPrice),
			MinBedrooms: optional(flags, "min-bedrooms", o.minBedrooms),
			MaxBedrooms: optional(flags, "max-bedrooms", o.maxBedrooms),
		},
		Limit: s.Limit,
	}

	if req.Filter.RadiusKm == nil {
		req.Filter.RadiusKm = s.RadiusKm
	}

	if flags.Changed("limit") {
		req.Limit = o.limit
	}

	hasLat, hasLon := flags.Changed("lat"), flags.Changed("lon")

	switch {
	case hasLat && hasLon:
		center := spatial.Point{Lat: o.lat, Lng: o.lon}
		if err := center.Validate(); err != nil {
			return req, &config.Error{Setting: "--lat/--lon", Message: "invalid center", Err: err}
		}

		req.Center = &center
	case hasLat || hasLon:
		return req, &config.Error{Setting: "--lat/--lon", Message: "both --lat and --lon are required"}
	case req.Address == "":
		return req, &config.Error{Setting: "--center-address", Message: "required unless --lat and --lon are given"}
	}

	for name, v := range map[string]*float64{
		"--radius-km":    req.Filter.RadiusKm,
		"--min-price":    req.Filter.MinPrice,
		"--max-price":    req.Filter.MaxPrice,
		"--min-bedrooms": req.Filter.MinBedrooms,
		"--max-bedrooms": req.Filter.MaxBedrooms,
	} {
		if err := config.CheckAmount(name, v); err != nil {
			return req, err
		}
	}

	if lo, hi := req.Filter.MinPrice, req.Filter.MaxPrice; lo != nil && hi != nil && *lo > *hi {
		return req, &config.Error{Setting: "--min-price", Message: "must not exceed --max-price"}
	}

	if lo, hi := req.Filter.MinBedrooms, req.Filter.MaxBedrooms; lo != nil && hi != nil && *lo > *hi {
		return req, &config.Error{Setting: "--min-bedrooms", Message: "must not exceed --max-bedrooms"}
	}

	if req.Limit < 0 {
		return req, &config.Error{Setting: "--limit", Message: "must not be negative"}
	}

	return req, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

func httpClient(s *config.Settings, trace, traceBody bool, stderr io.Writer) *http.Client {
	opts := httputils.ClientOptions{UserAgent: s.GeocoderUserAgent, TraceBody: traceBody}
	if trace || traceBody {
		opts.TraceWriter = stderr
	}

	return httputils.NewClient(opts)
}

// newGeocoder builds the configured geocoder. The Google geocoder falls back
// to Application Default Credentials when no key is configured.
func newGeocoder(ctx context.Context, name string, s *config.Settings, client *http.Client) (geocoding.Geocoder, error) {
	key := s.GoogleMapsAPIKey

	if n := strings.ToLower(name); (n == "google" || n == "google_maps") && key == "" && s.GoogleCloudProject != "" {
		log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

		adcKey, err := geocoding.APIKeyFromADC(ctx, s.GoogleCloudProject, "")
		if err != nil {
			log.Printf("Failed to retrieve API key via ADC: %v", err)
		} else {
			log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

			key = adcKey
		}
	}

	return geocoding.New(name, geocoding.Options{
		UserAgent:        s.GeocoderUserAgent,
		GoogleMapsAPIKey: key,
		HTTPClient:       client,
		BaseURL:          s.GeocoderURL,
	})
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd()) && !color.NoColor
}

func runSearch(cmd *cobra.Command, global *globalOptions, opts *searchOptions) error {
	s, err := global.settings()
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(firstSet(opts.output, s.Output))
	if err != nil {
		return err
	}

	req, err := opts.request(cmd.Flags(), s)
	if err != nil {
		return err
	}

	client := httpClient(s, opts.traceHTTP, opts.traceHTTPBody, cmd.ErrOrStderr())

	p, err := provider.New(firstSet(opts.providerName, s.Provider), provider.Settings{
		RentcastAPIKey:      s.RentcastAPIKey,
		NYCOpenDataAppToken: s.NYCOpenDataAppToken,
		OpenDataBoundingBox: opts.openDataBBox || s.OpenDataBoundingBox,
		Verbose:             global.verbose,
		HTTPClient:          client,
		OpenDataURL:         s.OpenDataURL,
		RentcastURL:         s.RentcastURL,
	})
	if err != nil {
		return err
	}

	var g geocoding.Geocoder
	if req.Center == nil {
		if g, err = newGeocoder(cmd.Context(), firstSet(opts.geocoder, s.Geocoder), s, client); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(cmd.Context(), g, p, req)
	if err != nil {
		return err
	}

	if opts.saveJSON != "" {
		if err := saveJSON(opts.saveJSON, res.Listings); err != nil {
			return err
		}
	}

	if opts.exportDuckDB != "" {
		run := store.NewRun(p.Name(), req.Address, res.Center.Point, req.Filter.String())
		if err := store.Export(opts.exportDuckDB, run, res.Listings); err != nil {
			return fmt.Errorf("exporting to %s: %w", opts.exportDuckDB, err)
		}
	}

	if len(res.Listings) == 0 && format != render.FormatTable {
		log.Println(render.NoResults)
	}

	out := cmd.OutOrStdout()

	return render.Render(out, res.Listings, format, render.Options{Color: useColor(out)})
}

func saveJSON(path string, listings []*listing.Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := render.Render(f, listings, render.FormatJSON, render.Options{IncludeRaw: true}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	log.Printf("💾 Saved %d listings to %s", len(listings), path)

	return f.Close()
}
