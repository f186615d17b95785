package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/models"
)

// ClientLogHandler accepts structured client-side events.
type ClientLogHandler struct {
	writer *ingest.Writer
	logger *slog.Logger
}

// NewClientLogHandler creates a new client log handler.
func NewClientLogHandler(writer *ingest.Writer, logger *slog.Logger) *ClientLogHandler {
	return &ClientLogHandler{
		writer: writer,
		logger: logger,
	}
}

// Create handles POST /api/log - records one client-emitted event.
//
// The record is handed to the fire-and-forget write path; the response
// acknowledges acceptance, not durability. A write that later fails is
// logged by the ingest writer and never surfaced here.
func (h *ClientLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ClientLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid JSON body")
		return
	}

	// Missing optional fields default rather than reject: absent
	// timestamp means now, absent data stays out of the envelope.
	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = models.Now()
	}

	envelope := models.ClientLogEnvelope{
		Message:   req.Message,
		Data:      req.Data,
		Timestamp: timestamp,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("failed to serialize client log envelope", "error", err)
		WriteInternalError(w, "failed to serialize event")
		return
	}

	h.writer.Enqueue(&models.LogRecord{
		Method:    models.MethodClientLog,
		URL:       r.URL.Path,
		Headers:   "{}",
		Body:      string(body),
		Timestamp: models.Now(),
	})

	h.logger.Debug("client log accepted",
		"type", req.Type,
		"message", req.Message,
	)

	WriteSuccess(w, "")
}
