// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/pharmafinder/directory"
	"github.com/joho/godotenv"
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

// Options shared by every command.
type Options struct {
	EnvFile             string
	DbPath              string
	Directory           string
	Region              string
	Country             string
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}

var options = &Options{}

// Column and sheet overrides used whenever a directory file is read, by
// 'directory import' or through --directory.
var loadOptions = directory.Options{}

var rootCmd = &cobra.Command{
	Use:   "pharma",
	Short: "nearest pharmacies to an address",
	Long: `
pharma geocodes a free-text address and lists the closest pharmacies of a
static directory, ordered by geodesic distance.
`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(options.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", options.EnvFile, err)
		}

		if v := os.Getenv("PHARMA_DB_PATH"); v != "" && !cmd.Flags().Changed("db-path") {
			options.DbPath = v
		}

		return nil
	},
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.EnvFile,
		"env-file",
		".env",
		"File with environment variables to load before running",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"db",
		"Directory where the local database is stored (env PHARMA_DB_PATH)",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.Directory,
		"directory",
		"",
		"Read the pharmacy directory from this CSV/TSV/XLSX file instead of the local database",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.Region,
		"region",
		"au",
		"Region bias for the geocoder (ccTLD)",
	)
	rootCmd.PersistentFlags().StringVar(
		&options.Country,
		"country",
		"AU",
		"Restrict geocoding results to this country, empty for worldwide",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	rootCmd.PersistentFlags().BoolVar(
		&options.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
	rootCmd.PersistentFlags().StringVar(
		&loadOptions.NameColumn,
		"name-column",
		"",
		"Header of the pharmacy name column (default: name or pharmacy_name)",
	)
	rootCmd.PersistentFlags().StringVar(
		&loadOptions.LatitudeColumn,
		"latitude-column",
		"",
		"Header of the latitude column (default: latitude or lat)",
	)
	rootCmd.PersistentFlags().StringVar(
		&loadOptions.LongitudeColumn,
		"longitude-column",
		"",
		"Header of the longitude column (default: longitude, lng or lon)",
	)
	rootCmd.PersistentFlags().StringVar(
		&loadOptions.Sheet,
		"sheet",
		"",
		"Worksheet to read from XLSX files (default: the active one)",
	)
}
