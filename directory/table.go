// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory holds the static pharmacy directory searched for
// proximity. A Table is built once and never modified afterwards, so it can
// be shared by concurrent readers without locking.
package directory

import (
	"iter"
	"slices"

	"github.com/jcodagnone/pharmafinder/spatial"
)

// Record is a single directory entry. Latitude and Longitude are kept as the
// raw text found in the source file, they may be malformed.
type Record struct {
	// Position of the record within the source table, starting at 0.
	Index     int               `json:"index"`
	Name      string            `json:"name"`
	Latitude  string            `json:"latitude"`
	Longitude string            `json:"longitude"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Point parses the record coordinates.
func (r *Record) Point() (spatial.Point, error) {
	return spatial.ParsePoint(r.Latitude, r.Longitude)
}

// Stats summarizes the quality of a table.
type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// Table is an immutable, ordered list of records.
type Table struct {
	columns []string
	records []Record
}

// NewTable builds a table from columns and records. Record indexes are
// reassigned to their position in the slice.
func NewTable(columns []string, records []Record) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		records: make([]Record, len(records)),
	}

	for i, r := range records {
		r.Index = i
		t.records[i] = r
	}

	return t
}

// Len returns the number of records, valid or not.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.records)
}

// Columns returns the source column headers in file order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}

	return slices.Clone(t.columns)
}

// Record returns the i-th record.
func (t *Table) Record(i int) Record {
	return t.records[i]
}

// All iterates the records in table order. Fields maps are shared with the
// table and must not be modified.
func (t *Table) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		if t == nil {
			return
		}

		for i, r := range t.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Stats counts records with and without usable coordinates.
func (t *Table) Stats() Stats {
	var s Stats

	for _, r := range t.All() {
		s.Total++

		if _, err := r.Point(); err != nil {
			s.Invalid++
		} else {
			s.Valid++
		}
	}

	return s
}
