// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jcodagnone/pharmafinder/utils/httputils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{
  "status": "OK",
  "results": [{
    "formatted_address": "483 George St, Sydney NSW 2000, Australia",
    "geometry": {
      "location": {"lat": -33.8732, "lng": 151.2061},
      "location_type": "ROOFTOP"
    }
  }]
}`

// capturedRequest keeps what the fake endpoint received last.
type capturedRequest struct {
	query     url.Values
	userAgent string
}

// fakeGoogleMaps answers geocode requests based on the address parameter.
func fakeGoogleMaps(t *testing.T) (*httptest.Server, *capturedRequest) {
	t.Helper()

	last := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.query = r.URL.Query()
		last.userAgent = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("address") {
		case "483 George St":
			fmt.Fprint(w, okResponse)
		case "approximate":
			fmt.Fprint(w, `{"status":"OK","results":[{"formatted_address":"Sydney NSW, Australia",
				"geometry":{"location":{"lat":-33.86,"lng":151.20},"location_type":"APPROXIMATE"}}]}`)
		case "over limit":
			fmt.Fprint(w, `{"status":"OVER_QUERY_LIMIT","error_message":"You have exceeded your rate-limit","results":[]}`)
		case "denied":
			fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`)
		default:
			fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
		}
	}))
	t.Cleanup(server.Close)

	return server, last
}

func newTestGoogleGeocoder(t *testing.T, baseURL string, opts GoogleMapsOptions) *GoogleMapsGeocoder {
	t.Helper()

	opts.APIKey = "AIza-test-key"
	opts.BaseURL = baseURL

	g, err := NewGoogleMapsGeocoder(opts)
	require.NoError(t, err)

	return g
}

func TestNewGoogleMapsGeocoderRequiresKey(t *testing.T) {
	_, err := NewGoogleMapsGeocoder(GoogleMapsOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGoogleMapsGeocode(t *testing.T) {
	server, last := fakeGoogleMaps(t)

	var trace bytes.Buffer

	g := newTestGoogleGeocoder(t, server.URL, GoogleMapsOptions{
		Region:      "au",
		Country:     "AU",
		UserAgent:   "pharmafinder/test",
		TraceWriter: &trace,
	})

	result, err := g.Geocode(context.Background(), "483 George St")
	require.NoError(t, err)

	assert.InDelta(t, -33.8732, result.Point.Lat, 1e-9)
	assert.InDelta(t, 151.2061, result.Point.Lng, 1e-9)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "google_maps", result.Provider)
	assert.Equal(t, "483 George St, Sydney NSW 2000, Australia", result.DisplayName)

	assert.Equal(t, "au", last.query.Get("region"))
	assert.Equal(t, "country:AU", last.query.Get("components"))
	assert.Equal(t, "AIza-test-key", last.query.Get("key"))
	assert.Equal(t, "pharmafinder/test", last.userAgent)

	assert.Contains(t, trace.String(), "< RESPONSE: [")
	assert.NotContains(t, trace.String(), "AIza-test-key")
}

func TestGoogleMapsGeocodeConfidence(t *testing.T) {
	server, _ := fakeGoogleMaps(t)
	g := newTestGoogleGeocoder(t, server.URL, GoogleMapsOptions{})

	result, err := g.Geocode(context.Background(), "approximate")
	require.NoError(t, err)
	assert.Equal(t, "low", result.Confidence)
}

func TestGoogleMapsGeocodeErrors(t *testing.T) {
	server, _ := fakeGoogleMaps(t)
	g := newTestGoogleGeocoder(t, server.URL, GoogleMapsOptions{RequestsPerSecond: 100})

	tests := []struct {
		address string
		want    ErrorType
	}{
		{"zzzz nowhere", ErrorTypeNotFound},
		{"over limit", ErrorTypeRateLimit},
		{"denied", ErrorTypeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			result, err := g.Geocode(context.Background(), tt.address)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.want, TypeOf(err), "error: %v", err)

			_, ok := Resolve(context.Background(), g, tt.address)
			assert.False(t, ok)
		})
	}
}

func TestGoogleMapsGeocodeCanceledContext(t *testing.T) {
	server, _ := fakeGoogleMaps(t)
	g := newTestGoogleGeocoder(t, server.URL, GoogleMapsOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Geocode(ctx, "483 George St")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "canceled"), "error: %v", err)
}

func TestGoogleMapsHTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       ErrorType
	}{
		{"bad gateway", http.StatusBadGateway, "<html>bad gateway</html>", ErrorTypeNetworkError},
		{"too many requests", http.StatusTooManyRequests, "slow down", ErrorTypeRateLimit},
		{"forbidden", http.StatusForbidden, `{"error":"quota"}`, ErrorTypeQuotaExceeded},
		{"unauthorized", http.StatusUnauthorized, "", ErrorTypeUnauthorized},
		{"teapot", http.StatusTeapot, "", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, tt.body, tt.statusCode)
			}))
			defer server.Close()

			g := newTestGoogleGeocoder(t, server.URL, GoogleMapsOptions{})

			result, err := g.Geocode(context.Background(), "483 George St")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.want, TypeOf(err), "error: %v", err)

			var statusErr *httputils.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.statusCode, statusErr.StatusCode)
		})
	}
}
