package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/flytraphq/flytrap/internal/store"
)

// HealthHandler reports process liveness and store reachability.
type HealthHandler struct {
	store   store.RecordStore
	version string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st store.RecordStore, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:   st,
		version: version,
		logger:  logger,
	}
}

// Get handles GET /health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	if _, err := h.store.Count(ctx); err != nil {
		h.logger.Error("health check store probe failed", "error", err)
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	WriteJSON(w, httpStatus, map[string]string{
		"status":  status,
		"version": h.version,
	})
}
