// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jcodagnone/pharmafinder/geocoding"
	"github.com/spf13/cobra"
)

// isTerminal reports whether f is a character device. When f cannot be
// stat'ed we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode addresses read from stdin",
	Long: `Reads one address per line and prints the address followed by the geocoding
result, or the reason it could not be resolved.

$ echo "483 George St, Sydney" | pharma debug geocode
483 George St, Sydney		{"point":{"lat":-33.8732,"lng":151.2061},"confidence":"high",…}
	`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		geocoder, cleanup, err := newGeocoder(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter addresses to geocode, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			address := strings.TrimSpace(scanner.Text())
			if address == "" {
				continue
			}

			result, err := geocoder.Geocode(cmd.Context(), address)
			if err != nil {
				fmt.Printf("%s\t%s\t%q\n", address, geocoding.TypeOf(err), err)

				continue
			}

			if s, err := json.Marshal(result); err == nil {
				fmt.Printf("%s\t\t%s\n", address, s)
			} else {
				log.Fatal(err)
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
}
