// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds validated coordinates and the distance between them.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/geodesic"
	"github.com/uber/h3-go/v4"
)

// ErrOutOfRange is returned when a coordinate falls outside the valid
// latitude/longitude range.
var ErrOutOfRange = errors.New("spatial: coordinate out of range")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint returns a validated point.
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}

	return p, nil
}

// ParsePoint parses latitude and longitude given as text. Surrounding spaces
// are ignored.
func ParsePoint(lat, lng string) (Point, error) {
	la, err := parseDegrees(lat)
	if err != nil {
		return Point{}, fmt.Errorf("latitude %q: %w", lat, err)
	}

	ln, err := parseDegrees(lng)
	if err != nil {
		return Point{}, fmt.Errorf("longitude %q: %w", lng, err)
	}

	return NewPoint(la, ln)
}

// Plain decimal notation with an optional exponent. Hex floats, digit
// separators and decimal commas are rejected.
var decimalPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}

	if !decimalPattern.MatchString(s) {
		return 0, errors.New("not a decimal number")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}

	return v, nil
}

// Validate checks the point is within [-90, 90] x [-180, 180].
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrOutOfRange, p.Lat)
	}

	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrOutOfRange, p.Lng)
	}

	return nil
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

func (p Point) latLng() h3.LatLng {
	return h3.NewLatLng(p.Lat, p.Lng)
}

// DistanceKm returns the geodesic distance to other on the WGS-84
// ellipsoid, in kilometers.
func (p Point) DistanceKm(other Point) float64 {
	var meters float64

	geodesic.WGS84.Inverse(p.Lat, p.Lng, other.Lat, other.Lng, &meters, nil, nil)

	if meters < 0 || math.IsNaN(meters) {
		return 0
	}

	return meters / 1000
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(resolution int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(p.latLng(), resolution)
	if err != nil {
		return 0, fmt.Errorf("converting %s to h3 cell at res %d: %w", p, resolution, err)
	}

	return cell, nil
}
