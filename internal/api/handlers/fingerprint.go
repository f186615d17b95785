package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/models"
)

// FingerprintHandler accepts long-lived WebSocket connections carrying
// one-shot fingerprint submissions. The channel is receive-only: no
// frame is ever echoed back, and a malformed message never closes the
// connection.
type FingerprintHandler struct {
	writer   *ingest.Writer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewFingerprintHandler creates a new fingerprint channel handler.
func NewFingerprintHandler(writer *ingest.Writer, logger *slog.Logger) *FingerprintHandler {
	return &FingerprintHandler{
		writer: writer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve handles GET /ws - upgrades the connection and runs the read loop
// until the transport closes or the client sends a close frame.
func (h *FingerprintHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", "error", err)
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	logger := h.logger.With("conn_id", connID, "remote_addr", r.RemoteAddr)
	logger.Info("fingerprint channel opened")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("fingerprint channel closed by client")
			} else {
				logger.Debug("fingerprint channel read ended", "error", err)
			}
			return
		}

		h.handleMessage(message, logger)
	}
}

// handleMessage parses one inbound frame. Parse failures and unknown
// message types are logged and ignored; each valid fingerprint message
// triggers exactly one store write.
func (h *FingerprintHandler) handleMessage(message []byte, logger *slog.Logger) {
	var msg models.FingerprintMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("ignoring malformed fingerprint frame", "error", err)
		return
	}

	if msg.Type != "fingerprint" {
		logger.Debug("ignoring non-fingerprint message", "type", msg.Type)
		return
	}

	data := msg.Data
	if data == nil {
		data = map[string]any{}
	}

	origin, _ := data["origin"].(string)
	delete(data, "origin")

	body, err := json.Marshal(data)
	if err != nil {
		logger.Warn("failed to serialize fingerprint payload", "error", err)
		return
	}

	h.writer.Enqueue(&models.LogRecord{
		Method:    models.MethodWS,
		URL:       origin,
		Headers:   "{}",
		Body:      string(body),
		Timestamp: models.Now(),
	})

	logger.Debug("fingerprint recorded", "origin", origin)
}
