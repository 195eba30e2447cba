// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package nearest

import (
	"context"
	"errors"

	"github.com/jcodagnone/pharmafinder/directory"
	"github.com/jcodagnone/pharmafinder/geocoding"
	"github.com/jcodagnone/pharmafinder/spatial"
)

// ErrAddressNotFound is returned when an address cannot be geocoded.
var ErrAddressNotFound = errors.New("address not found")

// Result is the answer to a proximity query.
type Result struct {
	// Query is where the search was centered.
	Query   geocoding.Result `json:"query"`
	Matches []Match          `json:"matches"`
}

// FindFunc is the signature of Find.
type FindFunc func(query spatial.Point, table *directory.Table, n int) []Match

// Locator answers "nearest pharmacies to this address" queries. It holds no
// mutable state and is safe for concurrent use.
type Locator struct {
	geocoder geocoding.Geocoder
	table    *directory.Table
	find     FindFunc
}

// NewLocator creates a locator over table.
func NewLocator(geocoder geocoding.Geocoder, table *directory.Table) *Locator {
	return &Locator{geocoder: geocoder, table: table, find: Find}
}

// Table returns the directory searched by the locator.
func (l *Locator) Table() *directory.Table {
	return l.table
}

// Geocode resolves address through the geocoding adapter.
func (l *Locator) Geocode(ctx context.Context, address string) (*geocoding.Result, bool) {
	return geocoding.Resolve(ctx, l.geocoder, address)
}

// Locate geocodes address and returns the n nearest records. The search is
// not attempted when the address is unresolvable.
func (l *Locator) Locate(ctx context.Context, address string, n int) (*Result, error) {
	query, ok := l.Geocode(ctx, address)
	if !ok {
		return nil, ErrAddressNotFound
	}

	return &Result{
		Query:   *query,
		Matches: l.find(query.Point, l.table, n),
	}, nil
}

// LocatePoint returns the n nearest records to an already known point.
func (l *Locator) LocatePoint(point spatial.Point, n int) (*Result, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	return &Result{
		Query: geocoding.Result{
			Point:      point,
			Confidence: "high",
			Provider:   "input",
		},
		Matches: l.find(point, l.table, n),
	}, nil
}
