// Copyright 2025 The aptsearch Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nycapts/aptsearch/config"
	"github.com/nycapts/aptsearch/geocoding"
	"github.com/nycapts/aptsearch/provider"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// Exit codes returned by Execute.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitGeocode  = 3
	ExitProvider = 4
)

type globalOptions struct {
	configFile string
	envFile    string
	verbose    bool
}

func (o *globalOptions) settings() (*config.Settings, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: o.configFile,
		EnvFile:    o.envFile,
	})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "aptsearch",
		Short: "search apartment-like records around an address",
		Long: `
aptsearch fetches apartment-like records from a pluggable data source (NYC Open
Data affordable housing buildings, RentCast rental listings), computes the
distance of each one to a geocoded center point, filters them by radius, rent
and bedrooms, and prints them nearest first.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.Error{Message: "invalid command line", Err: err}
	})

	root.PersistentFlags().StringVar(
		&opts.configFile,
		"config",
		"",
		"YAML configuration file (default $"+config.EnvConfigFile+")",
	)
	root.PersistentFlags().StringVar(
		&opts.envFile,
		"env-file",
		".env",
		"dotenv file with credentials, ignored when missing",
	)
	root.PersistentFlags().BoolVarP(
		&opts.verbose,
		"verbose",
		"v",
		false,
		"log every skipped record",
	)

	root.AddCommand(newSearchCmd(opts))
	root.AddCommand(newProvidersCmd())
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newDebugCmd(opts))

	return root
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	var (
		cfgErr     *config.Error
		unknownGeo *geocoding.UnknownGeocoderError
		missingKey *geocoding.MissingAPIKeyError
		geoErr     *geocoding.GeocodeError
		prvErr     *provider.ProviderError
	)

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr), errors.As(err, &unknownGeo), errors.As(err, &missingKey):
		return ExitConfig
	case errors.As(err, &geoErr):
		return ExitGeocode
	case errors.As(err, &prvErr):
		return ExitProvider
	default:
		return ExitFailure
	}
}

// hint suggests a next step for geocoder failures the user can act on.
func hint(err error) string {
	switch {
	case geocoding.IsQuotaExceededError(err):
		return "the geocoder refused the request; check " + config.EnvGoogleMapsAPIKey + " or " + config.EnvGeocoderUserAgent
	case geocoding.IsRateLimitError(err):
		return "the geocoder is throttling requests; retry later or pass --lat and --lon"
	case geocoding.IsTimeoutError(err):
		return "the geocoder did not answer in time; retry later or pass --lat and --lon"
	default:
		return ""
	}
}

var Version = "dev"

func Execute(version string) {
	Version = version

	root := newRootCmd()
	root.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		log.Printf("❌ %v", err)
		if h := hint(err); h != "" {
			log.Printf("💡 %s", h)
		}

		os.Exit(ExitCode(err))
	}
}
