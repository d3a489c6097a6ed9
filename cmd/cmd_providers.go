// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/nycapts/aptsearch/provider"
	"github.com/spf13/cobra"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the available data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			a, b, c, d := strings.Repeat("─", 28), strings.Repeat("─", 5), strings.Repeat("─", 16), strings.Repeat("─", 62)
			fmt.Fprintln(out, "Available providers:")
			fmt.Fprintf(out, "╭─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, c, d)
			fmt.Fprintf(out, "│ %-28s │ %-5s │ %-16s │ %-62s │\n", "Name", "Rents", "Requires", "Description")
			fmt.Fprintf(out, "├─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, c, d)

			for _, r := range provider.Registrations() {
				rents := "no"
				if r.ReportsPrice {
					rents = "yes"
				}

				required := r.RequiredEnv
				if required == "" {
					required = "-"
				}

				name := r.Name
				if r.Name == provider.DefaultName {
					name += "*"
				}

				fmt.Fprintf(out, "│ %-28s │ %-5s │ %-16s │ %-62s │\n", name, rents, required, r.Description)
			}

			fmt.Fprintf(out, "╰─%s─┴─%s─┴─%s─┴─%s─╯\n", a, b, c, d)
			fmt.Fprintln(out, "* default")

			return nil
		},
	}
}
