// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the nearest pharmacy search as a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/pharmafinder/nearest"
	"github.com/jcodagnone/pharmafinder/spatial"
)

// MaxLimit caps the number of matches a single request can ask for.
const MaxLimit = 100

type Server struct {
	locator *nearest.Locator
}

func NewServer(locator *nearest.Locator) *Server {
	return &Server{locator: locator}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.healthz)
	r.GET("/api/nearest", s.findNearest)
	r.GET("/api/geocode", s.geocode)
	r.GET("/api/directory/stats", s.directoryStats)

	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "records": s.locator.Table().Len()})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return nearest.DefaultLimit, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > MaxLimit {
		return 0, fmt.Errorf("limit must be an integer between 0 and %d", MaxLimit)
	}

	return n, nil
}

func (s *Server) findNearest(ctx *gin.Context) {
	limit, err := parseLimit(ctx.Query("limit"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	lat, hasLat := ctx.GetQuery("lat")
	lng, hasLng := ctx.GetQuery("lng")

	if hasLat || hasLng {
		point, err := spatial.ParsePoint(lat, lng)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates", "details": err.Error()})

			return
		}

		result, err := s.locator.LocatePoint(point, limit)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusOK, result)

		return
	}

	address := strings.TrimSpace(ctx.Query("address"))
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address or lat/lng query parameters are required"})

		return
	}

	result, err := s.locator.Locate(ctx.Request.Context(), address, limit)
	if errors.Is(err, nearest.ErrAddressNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "address not found", "address": address})

		return
	} else if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) geocode(ctx *gin.Context) {
	address := strings.TrimSpace(ctx.Query("address"))
	if address == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})

		return
	}

	result, ok := s.locator.Geocode(ctx.Request.Context(), address)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "address not found", "address": address})

		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) directoryStats(ctx *gin.Context) {
	table := s.locator.Table()

	ctx.JSON(http.StatusOK, gin.H{
		"columns": table.Columns(),
		"stats":   table.Stats(),
	})
}
