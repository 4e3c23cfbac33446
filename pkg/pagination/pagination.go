// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// List endpoints are driven by explicit limit/offset query parameters with
// per-route bounds, and the resulting metadata is delivered in the API
// response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

// Bounds declares the per-route clamping rules for the limit parameter.
type Bounds struct {
	Default int
	Min     int
	Max     int
}

// Params holds the parsed limit and offset from a request's query string.
type Params struct {
	Limit  int
	Offset int
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// FromRequest parses "limit" and "offset" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid or out-of-range values are clamped to the route's [Bounds];
// negative offsets become zero.
func FromRequest(r *http.Request, bounds Bounds) Params {
	limit := parseIntParam(r, "limit", bounds.Default)
	offset := parseIntParam(r, "offset", 0)

	if limit < bounds.Min {
		limit = bounds.Min
	}
	if limit > bounds.Max {
		limit = bounds.Max
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
