// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/pharmafinder/directory"
	"github.com/jcodagnone/pharmafinder/geocoding"
)

const (
	dbFile = "pharmafinder.duckdb"

	// Display name of the Google Cloud API key provisioned for the geocoder
	apiKeyDisplayName = "PharmaFinder Geocoding Key"

	geocodeCachePrefix = "pharmafinder:geocode:"
	geocodeCacheTTL    = 30 * 24 * time.Hour
)

func openRepository() (directory.Repository, func(), error) {
	if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(options.DbPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := directory.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, func() { db.Close() }, nil
}

// requireDatabase fails when nothing was imported yet, so read-only commands
// never create an empty database.
func requireDatabase() error {
	dbpath := filepath.Join(options.DbPath, dbFile)
	if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("database not found at %s - run 'directory import' first or use --directory", dbpath)
	} else if err != nil {
		return fmt.Errorf("checking database: %w", err)
	}

	return nil
}

// loadDirectory returns the table to search: the --directory file when
// given, the imported one otherwise.
func loadDirectory() (*directory.Table, error) {
	if options.Directory != "" {
		table, err := directory.LoadFile(options.Directory, loadOptions)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", options.Directory, err)
		}

		return table, nil
	}

	if err := requireDatabase(); err != nil {
		return nil, err
	}

	repo, closeDB, err := openRepository()
	if err != nil {
		return nil, err
	}
	defer closeDB()

	table, err := repo.LoadTable()
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	if table.Len() == 0 {
		log.Printf("⚠️  The directory at %s is empty", filepath.Join(options.DbPath, dbFile))
	}

	return table, nil
}

func googleMapsAPIKey(ctx context.Context) string {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey != "" {
		return apiKey
	}

	log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

	apiKey, err := geocoding.APIKeyFromADC(ctx, apiKeyDisplayName, os.Getenv("GOOGLE_CLOUD_PROJECT"))
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)

		return ""
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return apiKey
}

// newGeocoder builds the geocoder used by every command: coordinate
// literals first, then Google Maps behind the Redis cache when REDIS_ADDR is
// set. The returned function releases the cache connection.
func newGeocoder(ctx context.Context) (geocoding.Geocoder, func(), error) {
	chain := geocoding.Chain{geocoding.CoordinatesGeocoder{}}
	cleanup := func() {}

	var trace io.Writer
	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		trace = os.Stderr
	}

	google, err := geocoding.NewGoogleMapsGeocoder(geocoding.GoogleMapsOptions{
		APIKey:            googleMapsAPIKey(ctx),
		Region:            options.Region,
		Country:           options.Country,
		UserAgent:         fmt.Sprintf("pharmafinder/%s (+https://github.com/jcodagnone/pharmafinder)", Version),
		RequestsPerSecond: 25,
		TraceWriter:       trace,
		TraceBody:         options.EnableHTTPBodyTrace,
	})
	if errors.Is(err, geocoding.ErrMissingAPIKey) {
		log.Print("⚠️  No Google Maps API key available, only \"lat, lng\" addresses will be resolved")

		return chain, cleanup, nil
	} else if err != nil {
		return nil, nil, err
	}

	var provider geocoding.Geocoder = google

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if redisDB, err = strconv.Atoi(v); err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
	}

	if client := geocoding.OpenRedis(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), redisDB); client != nil {
		provider = geocoding.NewCachingGeocoder(
			provider,
			geocoding.NewRedisCache(client, geocodeCachePrefix),
			geocodeCacheTTL,
		)
		cleanup = func() { client.Close() }
	}

	fmt.Fprintln(os.Stderr, "📍 Geocoding: Google Maps (primary)")

	return append(chain, provider), cleanup, nil
}
