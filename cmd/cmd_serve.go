// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/nycapts/aptsearch/provider"
	"github.com/nycapts/aptsearch/server"
	"github.com/spf13/cobra"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var addr, geocoderName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search API on a local address",
		Long: `Serves the same search as JSON:

  GET /api/search?address=Times+Square&radius_km=3&provider=rentcast&max_price=3000
  GET /api/providers
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := global.settings()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("addr") {
				addr = s.ServeAddr
			}

			client := httpClient(s, false, false, cmd.ErrOrStderr())

			g, err := newGeocoder(cmd.Context(), firstSet(geocoderName, s.Geocoder), s, client)
			if err != nil {
				return err
			}

			defaultProvider := firstSet(s.Provider, provider.DefaultName)
			if _, err := provider.Lookup(defaultProvider); err != nil {
				return err
			}

			srv := server.NewServer(g, provider.Settings{
				RentcastAPIKey:      s.RentcastAPIKey,
				NYCOpenDataAppToken: s.NYCOpenDataAppToken,
				OpenDataBoundingBox: s.OpenDataBoundingBox,
				Verbose:             global.verbose,
				HTTPClient:          client,
				OpenDataURL:         s.OpenDataURL,
				RentcastURL:         s.RentcastURL,
			}, defaultProvider)

			return srv.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&geocoderName, "geocoder", "", "geocoding service for address searches")

	return cmd
}
