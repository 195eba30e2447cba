// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/pharmafinder/utils/textutils"
	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when the source lacks a required column.
var ErrMissingColumn = errors.New("directory: missing required column")

// Column aliases, compared after textutils.ColumnKey folding.
var (
	nameAliases      = []string{"name", "pharmacy_name", "pharmacy"}
	latitudeAliases  = []string{"latitude", "lat"}
	longitudeAliases = []string{"longitude", "lng", "lon", "long"}
)

// Options tunes how a source file is mapped to records.
type Options struct {
	// NameColumn overrides the header holding the record name.
	NameColumn string

	// LatitudeColumn overrides the header holding the latitude.
	LatitudeColumn string

	// LongitudeColumn overrides the header holding the longitude.
	LongitudeColumn string

	// Comma is the field delimiter for delimited text. Defaults to ','.
	Comma rune

	// Sheet selects the worksheet of a spreadsheet. Defaults to the active one.
	Sheet string
}

// LoadFile loads a table choosing the format from the file extension:
// .xlsx spreadsheets, .tsv tab separated text, anything else as CSV.
func LoadFile(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, opts)
	case ".tsv", ".tab":
		if opts.Comma == 0 {
			opts.Comma = '\t'
		}
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening directory file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f, opts)
}

// LoadCSV reads a delimited text table with a header row.
func LoadCSV(r io.Reader, opts Options) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // short rows become records with missing fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited file: %w", err)
	}

	return build(rows, opts)
}

// LoadXLSX reads the first row of a worksheet as header and every following
// row as a record.
func LoadXLSX(path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	return build(rows, opts)
}

func findColumn(keys []string, override string, aliases []string) (int, error) {
	candidates := aliases
	if override != "" {
		candidates = []string{override}
	}

	for _, want := range candidates {
		want = textutils.ColumnKey(want)
		for i, key := range keys {
			if key == want {
				return i, nil
			}
		}
	}

	return -1, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(candidates, "|"))
}

func build(rows [][]string, opts Options) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file, no header", ErrMissingColumn)
	}

	header := make([]string, len(rows[0]))
	keys := make([]string, len(rows[0]))

	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		keys[i] = textutils.ColumnKey(h)
	}

	nameIdx, err := findColumn(keys, opts.NameColumn, nameAliases)
	if err != nil {
		return nil, err
	}

	latIdx, err := findColumn(keys, opts.LatitudeColumn, latitudeAliases)
	if err != nil {
		return nil, err
	}

	lngIdx, err := findColumn(keys, opts.LongitudeColumn, longitudeAliases)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	skipped := 0

	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}

			return ""
		}

		fields := make(map[string]string, len(header))
		for i, h := range header {
			fields[h] = cell(i)
		}

		r := Record{
			Name:      cell(nameIdx),
			Latitude:  cell(latIdx),
			Longitude: cell(lngIdx),
			Fields:    fields,
		}

		if _, err := r.Point(); err != nil {
			skipped++

			log.Printf("⚠️  Row %d (%q) has unusable coordinates: %v", n+2, r.Name, err)
		}

		records = append(records, r)
	}

	if skipped > 0 {
		log.Printf("⚠️  %s of %s rows will be ignored by proximity searches",
			textutils.FormatInt(int64(skipped)), textutils.FormatInt(int64(len(records))))
	}

	return NewTable(header, records), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
