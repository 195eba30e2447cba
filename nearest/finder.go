// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package nearest finds the directory records closest to a point.
package nearest

import (
	"cmp"
	"slices"

	"github.com/jcodagnone/pharmafinder/directory"
	"github.com/jcodagnone/pharmafinder/spatial"
)

// DefaultLimit is the number of matches returned when the caller has no
// preference.
const DefaultLimit = 10

// Match is a directory record paired with its distance to the query point.
type Match struct {
	Record     directory.Record `json:"record"`
	Point      spatial.Point    `json:"point"`
	DistanceKm float64          `json:"distance_km"`
}

// Find returns up to n records of table ordered by geodesic distance to
// query. Records whose coordinates do not parse, or fall out of range, are
// skipped. Equal distances keep table order. The result is never nil.
func Find(query spatial.Point, table *directory.Table, n int) []Match {
	if n <= 0 || table.Len() == 0 {
		return []Match{}
	}

	matches := make([]Match, 0, table.Len())

	for _, record := range table.All() {
		p, err := record.Point()
		if err != nil {
			continue
		}

		matches = append(matches, Match{
			Record:     record,
			Point:      p,
			DistanceKm: query.DistanceKm(p),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})

	if len(matches) > n {
		matches = slices.Clip(matches[:n])
	}

	return matches
}
