// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the search pipeline as a small local JSON API.
package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/geocoding"
	"github.com/nycapts/aptsearch/listing"
	"github.com/nycapts/aptsearch/pipeline"
	"github.com/nycapts/aptsearch/provider"
	"github.com/nycapts/aptsearch/spatial"
)

type Server struct {
	geocoder        geocoding.Geocoder
	settings        provider.Settings
	defaultProvider string
}

func NewServer(geocoder geocoding.Geocoder, settings provider.Settings, defaultProvider string) *Server {
	return &Server{
		geocoder:        geocoder,
		settings:        settings,
		defaultProvider: defaultProvider,
	}
}

// Router returns the engine with every API route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/search", s.search)
	r.GET("/api/providers", s.listProviders)

	return r
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("🌐 Serving on http://%s/api/search", addr)

	return s.Router().Run(addr)
}

type searchParams struct {
	Address     string   `form:"address"`
	Lat         *float64 `form:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lon         *float64 `form:"lon" binding:"omitempty,gte=-180,lte=180"`
	Provider    string   `form:"provider"`
	RadiusKm    *float64 `form:"radius_km" binding:"omitempty,gte=0"`
	MinPrice    *float64 `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice    *float64 `form:"max_price" binding:"omitempty,gte=0"`
	MinBedrooms *float64 `form:"min_bedrooms" binding:"omitempty,gte=0"`
	MaxBedrooms *float64 `form:"max_bedrooms" binding:"omitempty,gte=0"`
	Limit       int      `form:"limit" binding:"gte=0"`
}

type searchResponse struct {
	Center     centerResponse     `json:"center"`
	Provider   string             `json:"provider"`
	Count      int                `json:"count"`
	Fetched    int                `json:"fetched"`
	Duplicates int                `json:"duplicates"`
	Listings   []*listing.Listing `json:"listings"`
}

type centerResponse struct {
	spatial.Point
	DisplayName string `json:"display_name"`
	Geocoder    string `json:"geocoder"`
}

func (s *Server) search(ctx *gin.Context) {
	var params searchParams
	if err := ctx.ShouldBindQuery(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	req := pipeline.Request{
		Address: params.Address,
		Filter: pipeline.Filter{
			RadiusKm:    params.RadiusKm,
			MinPrice:    params.MinPrice,
			MaxPrice:    params.MaxPrice,
			MinBedrooms: params.MinBedrooms,
			MaxBedrooms: params.MaxBedrooms,
		},
		Limit: params.Limit,
	}

	for name, v := range map[string]*float64{
		"radius_km":    params.RadiusKm,
		"min_price":    params.MinPrice,
		"max_price":    params.MaxPrice,
		"min_bedrooms": params.MinBedrooms,
		"max_bedrooms": params.MaxBedrooms,
	} {
		if err := config.CheckAmount(name, v); err != nil {
			s.fail(ctx, err)

			return
		}
	}

	switch {
	case params.Lat != nil && params.Lon != nil:
		req.Center = &spatial.Point{Lat: *params.Lat, Lng: *params.Lon}
	case params.Lat != nil || params.Lon != nil:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be given together"})

		return
	case params.Address == "":
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address (or lat and lon) query parameter is required"})

		return
	}

	name := params.Provider
	if name == "" {
		name = s.defaultProvider
	}

	p, err := provider.New(name, s.settings)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	res, err := pipeline.Run(ctx.Request.Context(), s.geocoder, p, req)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, searchResponse{
		Center: centerResponse{
			Point:       res.Center.Point,
			DisplayName: res.Center.DisplayName,
			Geocoder:    res.Center.Provider,
		},
		Provider:   p.Name(),
		Count:      len(res.Listings),
		Fetched:    res.Fetched,
		Duplicates: res.Duplicates,
		Listings:   res.Listings,
	})
}

// fail maps pipeline errors to HTTP statuses.
func (s *Server) fail(ctx *gin.Context, err error) {
	var (
		cfgErr *config.Error
		geoErr *geocoding.GeocodeError
		prvErr *provider.ProviderError
	)

	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	switch {
	case errors.As(err, &cfgErr):
		status = http.StatusBadRequest
		body["stage"] = "config"
	case errors.As(err, &geoErr):
		switch {
		case geocoding.IsNotFoundError(err), geocoding.IsInvalidRequestError(err):
			status = http.StatusUnprocessableEntity
		case geocoding.IsRateLimitError(err):
			status = http.StatusTooManyRequests
		case geocoding.IsTimeoutError(err):
			status = http.StatusGatewayTimeout
		default:
			status = http.StatusBadGateway
		}

		body["stage"] = "geocode"
	case errors.As(err, &prvErr):
		status = http.StatusBadGateway
		body["stage"] = "provider"
	}

	ctx.JSON(status, body)
}

type providerResponse struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases"`
	Description  string   `json:"description"`
	ReportsPrice bool     `json:"reports_price"`
	RequiredEnv  string   `json:"required_env,omitempty"`
	Default      bool     `json:"default"`
}

func (s *Server) listProviders(ctx *gin.Context) {
	regs := provider.Registrations()
	out := make([]providerResponse, 0, len(regs))

	def, err := provider.Lookup(s.defaultProvider)
	if err != nil {
		def = provider.Registration{Name: provider.DefaultName}
	}

	for _, r := range regs {
		out = append(out, providerResponse{
			Name:         r.Name,
			Aliases:      r.Aliases,
			Description:  r.Description,
			ReportsPrice: r.ReportsPrice,
			RequiredEnv:  r.RequiredEnv,
			Default:      r.Name == def.Name,
		})
	}

	ctx.JSON(http.StatusOK, out)
}
