// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health handles GET /health. Reports degraded with a 503 when the
// database does not answer.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := HealthStatus{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	}

	code := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check database ping failed", "error", err)
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}
