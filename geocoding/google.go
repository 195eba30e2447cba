// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/jcodagnone/pharmafinder/spatial"
	"github.com/jcodagnone/pharmafinder/utils/httputils"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// ErrMissingAPIKey is returned when the Google Maps geocoder has no key.
var ErrMissingAPIKey = errors.New("geocoding: google maps API key is required")

// GoogleMapsOptions configures GoogleMapsGeocoder.
type GoogleMapsOptions struct {
	// APIKey for the Geocoding API
	APIKey string

	// Region biases results towards a ccTLD, e.g. "au"
	Region string

	// Country restricts results to an ISO 3166-1 country, e.g. "AU"
	Country string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout of a single request. Defaults to 10 seconds.
	Timeout time.Duration

	// RequestsPerSecond caps the outgoing request rate, 0 disables it
	RequestsPerSecond float64

	// TraceWriter receives a dump of every HTTP exchange when not nil
	TraceWriter io.Writer

	// TraceBody includes response bodies in the trace
	TraceBody bool

	// BaseURL overrides the Google Maps endpoint
	BaseURL string
}

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	client  *maps.Client
	limiter *rate.Limiter
	region  string
	country string
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(opts GoogleMapsOptions) (*GoogleMapsGeocoder, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	var transport http.RoundTripper = http.DefaultTransport
	if opts.UserAgent != "" {
		transport = &httputils.AppendRequestHeadersRoundTripper{
			Transport: transport,
			Headers:   map[string]string{"User-Agent": opts.UserAgent},
		}
	}

	transport = &httputils.LoggingRoundTripper{
		Transport: transport,
		Writer:    opts.TraceWriter,
		DumpBody:  opts.TraceBody,
	}

	transport = &httputils.CheckStatusRoundTripper{Transport: transport}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(opts.APIKey),
		maps.WithHTTPClient(&http.Client{Transport: transport, Timeout: timeout}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(opts.BaseURL))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating google maps client: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &GoogleMapsGeocoder{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		region:  opts.Region,
		country: opts.Country,
	}, nil
}

// "maps: OVER_QUERY_LIMIT - You have exceeded your rate-limit for this API."
var mapsStatusPattern = regexp.MustCompile(`^maps: ([A-Z_]+) - (.*)$`)

func classifyMapsError(err error) *GeocodingError {
	if m := mapsStatusPattern.FindStringSubmatch(err.Error()); m != nil {
		geoErr := ClassifyStatus(m[1], m[2])
		geoErr.Err = err

		return geoErr
	}

	var statusErr *httputils.StatusError
	if errors.As(err, &statusErr) {
		geoErr := ClassifyHTTPError(statusErr.StatusCode, statusErr.Body)
		geoErr.Err = err

		return geoErr
	}

	if IsTimeoutError(err) {
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	}

	return &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
}

func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "waiting for rate limiter", Err: err}
	}

	req := &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	}
	if g.country != "" {
		req.Components = map[maps.Component]string{
			maps.ComponentCountry: g.country,
		}
	}

	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, classifyMapsError(err)
	}

	if len(results) == 0 {
		return nil, notFound("no results found for address: %s", address)
	}

	result := results[0]

	// Determine confidence based on location_type
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	}

	if result.PartialMatch && confidence == "high" {
		confidence = "medium"
	}

	return &Result{
		Point: spatial.Point{
			Lat: result.Geometry.Location.Lat,
			Lng: result.Geometry.Location.Lng,
		},
		Confidence:  confidence,
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}
