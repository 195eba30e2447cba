// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jcodagnone/pharmafinder/nearest"
	"github.com/jcodagnone/pharmafinder/spatial"
	"github.com/spf13/cobra"
)

type nearestOptions struct {
	Limit int
	Lat   string
	Lng   string
	JSON  bool
}

var nearestOpts = &nearestOptions{}

const nameWidth = 48

var nearestCmd = &cobra.Command{
	Use:   "nearest <address...>",
	Short: "List the pharmacies closest to an address",
	Long: `Geocodes the address and prints the closest pharmacies of the directory.
Coordinates can be given instead of an address with --lat/--lng, or as the
address itself.

$ pharma nearest 483 George St, Sydney
$ pharma nearest -n 3 --lat -33.8688 --lng 151.2093
$ pharma nearest -- "-33.8688, 151.2093"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hasPoint := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
		address := strings.TrimSpace(strings.Join(args, " "))

		if !hasPoint && address == "" {
			return errors.New("an address or --lat/--lng are required")
		}

		table, err := loadDirectory()
		if err != nil {
			return err
		}

		var result *nearest.Result

		if hasPoint {
			point, err := spatial.ParsePoint(nearestOpts.Lat, nearestOpts.Lng)
			if err != nil {
				return fmt.Errorf("invalid coordinates: %w", err)
			}

			if result, err = nearest.NewLocator(nil, table).LocatePoint(point, nearestOpts.Limit); err != nil {
				return err
			}
		} else {
			geocoder, cleanup, err := newGeocoder(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err = nearest.NewLocator(geocoder, table).Locate(cmd.Context(), address, nearestOpts.Limit)
			if errors.Is(err, nearest.ErrAddressNotFound) {
				fmt.Fprintf(os.Stderr, "Address not found: %q. Try a more specific address or give its coordinates.\n", address)

				return err
			} else if err != nil {
				return err
			}
		}

		if nearestOpts.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(result)
		}

		printMatches(result)

		return nil
	},
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}

	return string(r[:width-1]) + "…"
}

func printMatches(result *nearest.Result) {
	if result.Query.DisplayName != "" {
		fmt.Printf("Pharmacies near %s (%.6f, %.6f):\n", result.Query.DisplayName, result.Query.Point.Lat, result.Query.Point.Lng)
	} else {
		fmt.Printf("Pharmacies near %.6f, %.6f:\n", result.Query.Point.Lat, result.Query.Point.Lng)
	}

	if len(result.Matches) == 0 {
		fmt.Println("No matches.")

		return
	}

	a, b, c := strings.Repeat("─", 3), strings.Repeat("─", nameWidth), strings.Repeat("─", 13)
	fmt.Printf("╭─%s─┬─%s─┬─%s─╮\n", a, b, c)
	fmt.Printf("│ %3s │ %-*s │ %13s │\n", "#", nameWidth, "Pharmacy Name", "Distance (km)")
	fmt.Printf("├─%s─┼─%s─┼─%s─┤\n", a, b, c)

	for i, m := range result.Matches {
		fmt.Printf("│ %3d │ %-*s │ %13.2f │\n", i+1, nameWidth, truncate(m.Record.Name, nameWidth), m.DistanceKm)
	}

	fmt.Printf("╰─%s─┴─%s─┴─%s─╯\n", a, b, c)
}

func init() {
	rootCmd.AddCommand(nearestCmd)
	nearestCmd.Flags().IntVarP(
		&nearestOpts.Limit,
		"limit",
		"n",
		nearest.DefaultLimit,
		"Maximum number of pharmacies to list",
	)
	nearestCmd.Flags().StringVar(&nearestOpts.Lat, "lat", "", "Latitude of the search center")
	nearestCmd.Flags().StringVar(&nearestOpts.Lng, "lng", "", "Longitude of the search center")
	nearestCmd.Flags().BoolVar(&nearestOpts.JSON, "json", false, "Print the result as JSON")
}
