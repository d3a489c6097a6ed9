// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newDebugCmd(global *globalOptions) *cobra.Command {
	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Dev tools",
	}

	var geocoderName string

	geocodeCmd := &cobra.Command{
		Use:   "geocode",
		Short: "Geocode addresses read from stdin, one per line",
		Long: `Reads one address per line and prints it followed by the coordinates found,
or the error.

$ echo "Times Square, New York" | aptsearch debug geocode
Times Square, New York	40.757980,-73.985540	medium	Times Square, Manhattan, …
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := global.settings()
			if err != nil {
				return err
			}

			g, err := newGeocoder(cmd.Context(), firstSet(geocoderName, s.Geocoder), s, httpClient(s, false, false, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			input := cmd.InOrStdin()
			if f, ok := input.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Enter addresses to geocode, one per line…")
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(input)

			for scanner.Scan() {
				address := strings.TrimSpace(scanner.Text())
				if address == "" {
					continue
				}

				res, err := g.Geocode(cmd.Context(), address)
				if err != nil {
					fmt.Fprintf(out, "%s\t%q\n", address, err.Error())

					continue
				}

				fmt.Fprintf(out, "%s\t%.6f,%.6f\t%s\t%s\n", address, res.Point.Lat, res.Point.Lng, res.Confidence, res.DisplayName)
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			return nil
		},
	}

	geocodeCmd.Flags().StringVar(&geocoderName, "geocoder", "", "geocoding service to use")
	debugCmd.AddCommand(geocodeCmd)

	return debugCmd
}
