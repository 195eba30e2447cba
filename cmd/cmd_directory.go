// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jcodagnone/pharmafinder/directory"
	"github.com/jcodagnone/pharmafinder/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Manage the local pharmacy directory",
}

var directoryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the local directory with the contents of a CSV, TSV or XLSX file",
	Long: `Reads a pharmacy directory with at least a name, a latitude and a longitude
column and stores it in the local database. Any other column is kept and shown
alongside search results. Rows with unusable coordinates are kept but never
returned by searches.

$ pharma directory import pharmacies.csv
`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		table, err := directory.LoadFile(args[0], loadOptions)
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(table.Len(),
				progressbar.OptionSetDescription("Importing "+filepath.Base(args[0])),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		progress := func() {
			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.Printf("updating progress bar: %v", err)
				}
			}
		}

		if err := repo.ReplaceAll(table, progress); err != nil {
			return fmt.Errorf("storing directory: %w", err)
		}

		stats := table.Stats()
		log.Printf("✅ Imported %s pharmacies (%s with usable coordinates) into %s",
			textutils.FormatInt(int64(stats.Total)),
			textutils.FormatInt(int64(stats.Valid)),
			filepath.Join(options.DbPath, dbFile),
		)

		return nil
	},
}

var directoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the local directory",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if options.Directory != "" {
			table, err := loadDirectory()
			if err != nil {
				return err
			}

			printStats(table.Stats())

			return nil
		}

		if err := requireDatabase(); err != nil {
			return err
		}

		repo, closeDB, err := openRepository()
		if err != nil {
			return err
		}
		defer closeDB()

		total, located, err := repo.Count()
		if err != nil {
			return fmt.Errorf("counting pharmacies: %w", err)
		}

		printStats(directory.Stats{Total: total, Valid: located, Invalid: total - located})

		return nil
	},
}

func printStats(stats directory.Stats) {
	fmt.Printf("Pharmacies:              %10s\n", textutils.FormatInt(int64(stats.Total)))
	fmt.Printf("  with coordinates:      %10s\n", textutils.FormatInt(int64(stats.Valid)))
	fmt.Printf("  without coordinates:   %10s\n", textutils.FormatInt(int64(stats.Invalid)))
}

func init() {
	rootCmd.AddCommand(directoryCmd)
	directoryCmd.AddCommand(directoryImportCmd)
	directoryCmd.AddCommand(directoryStatsCmd)
}
