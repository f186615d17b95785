package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/flytraphq/flytrap/internal/models"
	"github.com/flytraphq/flytrap/internal/store"
)

// LogsHandler serves the query, purge, and stats endpoints over the
// record store.
type LogsHandler struct {
	store store.RecordStore
	// maxLimit is applied when the caller passes no usable limit, so an
	// unbounded store query is never issued from this endpoint.
	maxLimit     int
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(st store.RecordStore, maxLimit int, queryTimeout time.Duration, logger *slog.Logger) *LogsHandler {
	return &LogsHandler{
		store:        st,
		maxLimit:     maxLimit,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// List handles GET /api/logs - returns records newest first.
//
// Query parameters: limit (integer) and startTime (ISO-8601 lower
// bound, inclusive). A storage failure is reported as a server error,
// never masked as an empty result.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
			if limit > h.maxLimit {
				limit = h.maxLimit
			}
		}
	}

	filter := store.QueryFilter{
		Since: r.URL.Query().Get("startTime"),
		Limit: limit,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	records, err := h.store.Query(ctx, filter)
	if err != nil {
		h.logger.Error("failed to query records", "error", err, "since", filter.Since, "limit", filter.Limit)
		WriteInternalError(w, "failed to query logs")
		return
	}

	if records == nil {
		records = []*models.LogRecord{}
	}

	WriteJSON(w, http.StatusOK, records)
}

// Purge handles DELETE /api/logs - deletes all records.
func (h *LogsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	deleted, err := h.store.Purge(ctx)
	if err != nil {
		h.logger.Error("failed to purge records", "error", err)
		WriteInternalError(w, "failed to purge logs")
		return
	}

	WriteSuccess(w, fmt.Sprintf("deleted %d log records", deleted))
}

// Stats handles GET /api/stats - reports record count and database size.
func (h *LogsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.Error("failed to read store stats", "error", err)
		WriteInternalError(w, "failed to read stats")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
