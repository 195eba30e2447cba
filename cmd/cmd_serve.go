// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/jcodagnone/pharmafinder/nearest"
	"github.com/jcodagnone/pharmafinder/server"
	"github.com/jcodagnone/pharmafinder/utils/textutils"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the nearest pharmacy search as a JSON API",
	Long: `Loads the directory once and answers

  GET /api/nearest?address=...&limit=N
  GET /api/nearest?lat=...&lng=...&limit=N
  GET /api/geocode?address=...
  GET /api/directory/stats
  GET /healthz
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := loadDirectory()
		if err != nil {
			return err
		}

		geocoder, cleanup, err := newGeocoder(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		log.Printf("Serving %s pharmacies on http://%s", textutils.FormatInt(int64(table.Len())), serveAddr)

		return server.NewServer(nearest.NewLocator(geocoder, table)).Run(serveAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Address to listen on")
}
