// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depscan

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers serves analysis over HTTP.
//
// # Thread Safety
//
// Safe for concurrent requests. Runs are serialized by the analyzer's own
// locking; the retained last report is guarded here.
type Handlers struct {
	analyzer *Analyzer
	log      *slog.Logger

	mu   sync.RWMutex
	last *Report
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(analyzer *Analyzer, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{analyzer: analyzer, log: log}
}

// SetReport retains a report for GET /report, used by watch mode to
// publish rebuilt reports.
func (h *Handlers) SetReport(report *Report) {
	h.mu.Lock()
	h.last = report
	h.mu.Unlock()
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// HandleAnalyze runs a full scan and returns the report.
//
// POST /api/v1/analyze
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	log := h.log.With(slog.String("request_id", requestID))

	report, err := h.analyzer.Run(c.Request.Context())
	if err != nil {
		log.Error("analysis run failed", slog.Any("error", err))
		status := http.StatusInternalServerError
		code := "ANALYSIS_FAILED"
		if c.Request.Context().Err() != nil {
			status = 499 // Client closed request
			code = "CANCELED"
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	h.SetReport(report)
	c.Header("X-Request-ID", requestID)
	c.JSON(http.StatusOK, report)
}

// HandleReport returns the most recent report.
//
// GET /api/v1/report
func (h *Handlers) HandleReport(c *gin.Context) {
	h.mu.RLock()
	report := h.last
	h.mu.RUnlock()

	if report == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no analysis has completed yet",
			Code:  "NO_REPORT",
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// HandlePackages returns the standalone package-level dependency rollup.
//
// GET /api/v1/packages
func (h *Handlers) HandlePackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": h.analyzer.PackageGraph()})
}

// HandleHealth reports liveness.
//
// GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
