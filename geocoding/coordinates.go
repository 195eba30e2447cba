// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jcodagnone/pharmafinder/spatial"
)

// "-33.8688, 151.2093", "-33.8688 151.2093" or "-33.8688;151.2093".
var coordinatesPattern = regexp.MustCompile(`^\s*([-+]?\d{1,3}(?:\.\d+)?)\s*[,;\s]\s*([-+]?\d{1,3}(?:\.\d+)?)\s*$`)

// CoordinatesGeocoder resolves addresses that already are a "lat, lng" pair.
type CoordinatesGeocoder struct{}

func (CoordinatesGeocoder) Geocode(_ context.Context, address string) (*Result, error) {
	m := coordinatesPattern.FindStringSubmatch(address)
	if m == nil {
		return nil, notFound("not a coordinate pair: %s", address)
	}

	p, err := spatial.ParsePoint(m[1], m[2])
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid coordinate pair",
			Err:     err,
		}
	}

	return &Result{
		Point:       p,
		Confidence:  "high",
		Provider:    "coordinates",
		DisplayName: fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng),
	}, nil
}
