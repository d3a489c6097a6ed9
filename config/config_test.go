// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nycapts/aptsearch/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]

		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(LoadOptions{
		EnvFile:   filepath.Join(t.TempDir(), "missing.env"),
		LookupEnv: envMap(nil),
	})
	require.NoError(t, err)

	assert.Equal(t, Defaults(), *s)
	assert.Nil(t, s.RadiusKm)
	assert.Equal(t, geocoding.DefaultUserAgent, s.GeocoderUserAgent)
}

func TestLoadPrecedence(t *testing.T) {
	yamlFile := writeFile(t, "aptsearch.yaml", `
provider: rentcast
radius_km: 2.5
limit: 20
rentcast_api_key: from-yaml
geocoder_user_agent: yaml-agent
`)
	envFile := writeFile(t, ".env", `
RENTCAST_API_KEY=from-dotenv
NYC_APTS_NYC_OPEN_DATA_APP_TOKEN=token-from-dotenv
GEOCODER_USER_AGENT=dotenv-agent
`)

	s, err := Load(LoadOptions{
		EnvFile: envFile,
		LookupEnv: envMap(map[string]string{
			EnvConfigFile:                   yamlFile,
			EnvPrefix + EnvGeocoderUserAgent: "env-agent",
			EnvGoogleMapsAPIKey:             "  ",
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, "rentcast", s.Provider)
	require.NotNil(t, s.RadiusKm)
	assert.Equal(t, 2.5, *s.RadiusKm)
	assert.Equal(t, 20, s.Limit)
	assert.Equal(t, "from-dotenv", s.RentcastAPIKey, ".env wins over yaml")
	assert.Equal(t, "token-from-dotenv", s.NYCOpenDataAppToken)
	assert.Equal(t, "env-agent", s.GeocoderUserAgent, "environment wins over .env")
	assert.Empty(t, s.GoogleMapsAPIKey, "blank values are ignored")
	assert.Equal(t, "table", s.Output, "defaults survive a partial yaml file")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		opts        LoadOptions
		wantSetting string
	}{
		{
			name:        "missing explicit config",
			opts:        LoadOptions{ConfigFile: "/nonexistent/aptsearch.yaml"},
			wantSetting: "--config",
		},
		{
			name:        "unknown yaml key",
			opts:        LoadOptions{ConfigFile: writeFile(t, "bad.yaml", "radious_km: 3\n")},
			wantSetting: "--config",
		},
		{
			name:        "negative radius",
			opts:        LoadOptions{ConfigFile: writeFile(t, "neg.yaml", "radius_km: -1\n")},
			wantSetting: "radius_km",
		},
		{
			name:        "nan radius",
			opts:        LoadOptions{ConfigFile: writeFile(t, "nan.yaml", "radius_km: .nan\n")},
			wantSetting: "radius_km",
		},
		{
			name:        "infinite radius",
			opts:        LoadOptions{ConfigFile: writeFile(t, "inf.yaml", "radius_km: .inf\n")},
			wantSetting: "radius_km",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.EnvFile = filepath.Join(t.TempDir(), "missing.env")
			tt.opts.LookupEnv = envMap(nil)

			_, err := Load(tt.opts)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.wantSetting, cfgErr.Setting)
		})
	}
}

func TestEmptyYAMLFile(t *testing.T) {
	s, err := Load(LoadOptions{
		ConfigFile: writeFile(t, "empty.yaml", ""),
		EnvFile:    filepath.Join(t.TempDir(), "missing.env"),
		LookupEnv:  envMap(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *s)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Setting: "--provider", Message: "unknown provider \"x\"", Err: errors.New("cause")}
	assert.Equal(t, `invalid configuration for --provider: unknown provider "x": cause`, err.Error())
	assert.EqualError(t, errors.Unwrap(err), "cause")
}

func TestCheckAmount(t *testing.T) {
	value := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		v       *float64
		wantErr string
	}{
		{name: "unset", v: nil},
		{name: "zero", v: value(0)},
		{name: "positive", v: value(2.5)},
		{name: "negative", v: value(-1), wantErr: "must not be negative"},
		{name: "nan", v: value(math.NaN()), wantErr: "must be a finite number"},
		{name: "positive infinity", v: value(math.Inf(1)), wantErr: "must be a finite number"},
		{name: "negative infinity", v: value(math.Inf(-1)), wantErr: "must be a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAmount("--radius-km", tt.v)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, "--radius-km", cfgErr.Setting)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
