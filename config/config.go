// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads process-wide settings once at startup. Settings come,
// from lowest to highest precedence, from built-in defaults, an optional YAML
// file, a .env file, the process environment and finally command line flags
// (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nycapts/aptsearch/geocoding"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is accepted in front of every environment variable.
const EnvPrefix = "NYC_APTS_"

// Environment variables read by Load.
const (
	EnvConfigFile         = "APTSEARCH_CONFIG"
	EnvRentcastAPIKey     = "RENTCAST_API_KEY"
	EnvOpenDataAppToken   = "NYC_OPEN_DATA_APP_TOKEN"
	EnvGoogleMapsAPIKey   = "GOOGLE_MAPS_API_KEY"
	EnvGoogleCloudProject = "GOOGLE_CLOUD_PROJECT"
	EnvGeocoderUserAgent  = "GEOCODER_USER_AGENT"
)

// Settings is the resolved configuration.
type Settings struct {
	Provider string   `yaml:"provider"`
	Geocoder string   `yaml:"geocoder"`
	Output   string   `yaml:"output"`
	RadiusKm *float64 `yaml:"radius_km"`
	Limit    int      `yaml:"limit"`

	OpenDataBoundingBox bool `yaml:"open_data_bbox"`

	RentcastAPIKey      string `yaml:"rentcast_api_key"`
	NYCOpenDataAppToken string `yaml:"nyc_open_data_app_token"`
	GoogleMapsAPIKey    string `yaml:"google_maps_api_key"`
	// GoogleCloudProject enables fetching the Maps key through Application
	// Default Credentials when GoogleMapsAPIKey is empty.
	GoogleCloudProject string `yaml:"google_cloud_project"`
	GeocoderUserAgent  string `yaml:"geocoder_user_agent"`

	ServeAddr string `yaml:"serve_addr"`

	// Endpoint overrides, for mirrors and tests.
	GeocoderURL string `yaml:"geocoder_url"`
	OpenDataURL string `yaml:"open_data_url"`
	RentcastURL string `yaml:"rentcast_url"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Output:            "table",
		Geocoder:          "nominatim",
		GeocoderUserAgent: geocoding.DefaultUserAgent,
		ServeAddr:         "127.0.0.1:8080",
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; it must exist when set. When empty,
	// APTSEARCH_CONFIG is consulted.
	ConfigFile string
	// EnvFile is a dotenv file, ignored when missing. Defaults to ".env".
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves settings from defaults, the YAML file, the .env file and the
// environment. Values found in the process environment win over .env.
func Load(opts LoadOptions) (*Settings, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}

	dotenv, err := readDotenv(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	env := func(name string) string {
		for _, key := range []string{name, EnvPrefix + name} {
			if v, ok := opts.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}

		for _, key := range []string{name, EnvPrefix + name} {
			if v := strings.TrimSpace(dotenv[key]); v != "" {
				return v
			}
		}

		return ""
	}

	s := Defaults()

	file := opts.ConfigFile
	if file == "" {
		file = env(EnvConfigFile)
	}

	if file != "" {
		if err := s.mergeYAML(file); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*string{
		EnvRentcastAPIKey:     &s.RentcastAPIKey,
		EnvOpenDataAppToken:   &s.NYCOpenDataAppToken,
		EnvGoogleMapsAPIKey:   &s.GoogleMapsAPIKey,
		EnvGoogleCloudProject: &s.GoogleCloudProject,
		EnvGeocoderUserAgent:  &s.GeocoderUserAgent,
	} {
		if v := env(name); v != "" {
			*dst = v
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func readDotenv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, &Error{Setting: path, Message: "reading dotenv file", Err: err}
	}

	return values, nil
}

func (s *Settings) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Setting: "--config", Message: "reading " + path, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Setting: "--config", Message: "parsing " + path, Err: err}
	}

	return nil
}

// Validate checks values that do not depend on the selected provider.
func (s *Settings) Validate() error {
	var errs []error

	if err := CheckAmount("radius_km", s.RadiusKm); err != nil {
		errs = append(errs, err)
	}

	if s.Limit < 0 {
		errs = append(errs, &Error{Setting: "limit", Message: fmt.Sprintf("must not be negative (got %d)", s.Limit)})
	}

	if strings.TrimSpace(s.GeocoderUserAgent) == "" {
		errs = append(errs, &Error{Setting: EnvGeocoderUserAgent, Message: "must not be empty"})
	}

	return errors.Join(errs...)
}
