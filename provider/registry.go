// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"fmt"
	"strings"

	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/utils/textutils"
)

// Registration describes a provider that can be selected by name.
type Registration struct {
	Name        string
	Aliases     []string
	Description string
	// ReportsPrice tells whether listings from this provider carry rents.
	ReportsPrice bool
	// RequiredEnv names the credential the provider cannot run without.
	RequiredEnv string
	New         func(Settings) (Provider, error)
}

// DefaultName is the provider used when none is requested.
const DefaultName = OpenDataName

var registry = []Registration{
	{
		Name:         OpenDataName,
		Aliases:      []string{"open-data", "opendata", "nyc"},
		Description:  "NYC Open Data: Housing New York units by building (no rents)",
		ReportsPrice: false,
		New: func(s Settings) (Provider, error) {
			return NewNYCOpenDataProvider(s), nil
		},
	},
	{
		Name:         RentcastName,
		Aliases:      []string{"rentcast"},
		Description:  "RentCast long-term rental listings",
		ReportsPrice: true,
		RequiredEnv:  "RENTCAST_API_KEY",
		New: func(s Settings) (Provider, error) {
			p, err := NewRentcastProvider(s)
			if err != nil {
				return nil, err
			}

			return p, nil
		},
	},
}

// Registrations returns every registered provider, in display order.
func Registrations() []Registration {
	out := make([]Registration, len(registry))
	copy(out, registry)

	return out
}

// Names returns the canonical provider identifiers.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, r := range registry {
		names = append(names, r.Name)
	}

	return names
}

func normalizeName(name string) string {
	return strings.ReplaceAll(textutils.LowerASCIIFolding(name), " ", "_")
}

// Lookup finds a registration by name or alias, ignoring case and accents.
func Lookup(name string) (Registration, error) {
	key := normalizeName(name)
	if key == "" {
		key = DefaultName
	}

	for _, r := range registry {
		if normalizeName(r.Name) == key {
			return r, nil
		}

		for _, alias := range r.Aliases {
			if normalizeName(alias) == key {
				return r, nil
			}
		}
	}

	return Registration{}, &config.Error{
		Setting: "--provider",
		Message: fmt.Sprintf("unknown provider %q (available: %s)", name, strings.Join(Names(), ", ")),
	}
}

// New resolves name and builds the provider. Unknown names and missing
// credentials fail with *config.Error before any network call.
func New(name string, s Settings) (Provider, error) {
	r, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	return r.New(s)
}
