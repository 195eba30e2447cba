// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding turns free-text addresses into coordinates.
//
// Providers implement Geocoder and report detailed errors. Callers that only
// care about "found or not" go through Resolve, which never fails: every
// problem collapses into a not found answer.
package geocoding

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jcodagnone/pharmafinder/spatial"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point `json:"point"`
	Confidence  string        `json:"confidence"` // high, medium, low
	Provider    string        `json:"provider"`
	DisplayName string        `json:"display_name"`
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) (*Result, error)

// Geocode calls f.
func (f GeocoderFunc) Geocode(ctx context.Context, address string) (*Result, error) {
	return f(ctx, address)
}

// Resolve geocodes address with a single attempt. It returns false when the
// address is blank, the provider fails for any reason, or the answer has
// coordinates out of range. Failures are logged, not returned.
func Resolve(ctx context.Context, geocoder Geocoder, address string) (*Result, bool) {
	address = strings.TrimSpace(address)
	if address == "" || geocoder == nil {
		return nil, false
	}

	result, err := geocoder.Geocode(ctx, address)
	if err != nil {
		switch {
		case IsNotFoundError(err):
			log.Printf("Address %q not found", address)
		case IsRateLimitError(err):
			log.Printf("⚠️  Geocoding %q rate limited, not retrying: %v", address, err)
		case IsQuotaExceededError(err):
			log.Printf("🛑 Geocoding quota exhausted while resolving %q: %v", address, err)
		default:
			log.Printf("⚠️  Geocoding %q failed (%s): %v", address, TypeOf(err), err)
		}

		return nil, false
	}

	if result == nil {
		return nil, false
	}

	if err := result.Point.Validate(); err != nil {
		log.Printf("⚠️  Geocoding %q returned an invalid point: %v", address, err)

		return nil, false
	}

	return result, true
}

// Chain tries each geocoder in order and returns the first result.
type Chain []Geocoder

// Geocode implements Geocoder. When every provider fails the error of the
// last one that did something other than "not found" wins.
func (c Chain) Geocode(ctx context.Context, address string) (*Result, error) {
	var lastErr error

	for _, g := range c {
		result, err := g.Geocode(ctx, address)
		if err == nil && result != nil {
			return result, nil
		}

		if err != nil && (lastErr == nil || !IsNotFoundError(err)) {
			lastErr = err
		}

		if errors.Is(err, context.Canceled) {
			break
		}
	}

	if lastErr == nil {
		lastErr = notFound("no results found for address: %s", address)
	}

	return nil, lastErr
}
