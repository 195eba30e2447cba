// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"rate limit error type", &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit exceeded"}, true},
		{"error message contains rate limit", errors.New("rate limit exceeded"), true},
		{"error message contains too many requests", errors.New("too many requests"), true},
		{"error message contains 429", errors.New("provider returned status 429"), true},
		{"other error type", &GeocodingError{Type: ErrorTypeNotFound, Message: "not found"}, false},
		{"unrelated error", errors.New("some other error"), false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"quota error type", &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota"}, true},
		{"google over query limit", errors.New("maps: OVER_QUERY_LIMIT - slow down"), true},
		{"google over daily limit", errors.New("maps: OVER_DAILY_LIMIT - billing"), true},
		{"unrelated error", errors.New("some other error"), false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"timeout error type", &GeocodingError{Type: ErrorTypeTimeout, Message: "timeout"}, true},
		{"wrapped deadline", fmt.Errorf("geocoding: %w", context.DeadlineExceeded), true},
		{"client timeout message", errors.New("Client.Timeout exceeded while awaiting headers"), true},
		{"unrelated error", errors.New("some other error"), false},
	}, IsTimeoutError)
}

func TestIsNotFoundError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"not found type", notFound("nothing for %s", "x"), true},
		{"wrapped not found", fmt.Errorf("chain: %w", notFound("nothing")), true},
		{"zero results status", errors.New("ZERO_RESULTS"), true},
		{"other type", &GeocodingError{Type: ErrorTypeTimeout, Message: "slow"}, false},
		{"unrelated error", errors.New("some other error"), false},
	}, IsNotFoundError)
}

func TestClassifyStatus(t *testing.T) {
	if err := ClassifyStatus("OK", ""); err != nil {
		t.Errorf("ClassifyStatus(OK) = %v, want nil", err)
	}

	tests := []struct {
		status string
		want   ErrorType
	}{
		{"ZERO_RESULTS", ErrorTypeNotFound},
		{"OVER_QUERY_LIMIT", ErrorTypeRateLimit},
		{"OVER_DAILY_LIMIT", ErrorTypeQuotaExceeded},
		{"REQUEST_DENIED", ErrorTypeUnauthorized},
		{"INVALID_REQUEST", ErrorTypeInvalidRequest},
		{"UNKNOWN_ERROR", ErrorTypeNetworkError},
		{"SOMETHING_NEW", ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			err := ClassifyStatus(tt.status, "details")
			if err.Type != tt.want {
				t.Errorf("ClassifyStatus(%s).Type = %s, want %s", tt.status, err.Type, tt.want)
			}

			if want := "google maps status " + tt.status + ": details"; err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusUnauthorized, ErrorTypeUnauthorized},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusGatewayTimeout, ErrorTypeNetworkError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			if got := ClassifyHTTPError(tt.statusCode, ""); got.Type != tt.want {
				t.Errorf("ClassifyHTTPError(%d).Type = %s, want %s", tt.statusCode, got.Type, tt.want)
			}
		})
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is() should find the wrapped error")
	}

	if got, want := err.Error(), "geocoding request failed: dial tcp: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if TypeOf(fmt.Errorf("outer: %w", err)) != ErrorTypeNetworkError {
		t.Error("TypeOf() should see through wrapping")
	}

	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q", got)
	}
}
