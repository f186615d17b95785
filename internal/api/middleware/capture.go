// Package middleware provides HTTP middleware for the flytrap server.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/models"
)

// Capture returns a middleware that records every inbound request as a
// LogRecord and hands it to the ingest writer. The request always
// proceeds to the next handler regardless of capture outcome: a full
// queue, an unreadable body, or a later store failure never rejects or
// delays the request.
//
// maxBody caps how many body bytes are buffered for the record. The
// downstream handler sees the original body either way: buffered bytes
// are stitched back in front of the unread remainder.
func Capture(writer *ingest.Writer, maxBody int64, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record := &models.LogRecord{
				Method:    r.Method,
				URL:       r.URL.RequestURI(),
				Headers:   serializeHeaders(r.Header),
				Body:      captureBody(r, maxBody, logger),
				Timestamp: models.Now(),
			}

			writer.Enqueue(record)

			next.ServeHTTP(w, r)
		})
	}
}

// serializeHeaders renders the header map as a JSON object. Falls back
// to "{}" if marshalling fails.
func serializeHeaders(h http.Header) string {
	data, err := json.Marshal(h)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// captureBody buffers up to maxBody bytes of the request body and
// returns its compact serialization when it is a JSON object with at
// least one key; anything else yields the empty string. The buffered
// bytes are re-attached so the downstream handler reads the body
// unchanged.
func captureBody(r *http.Request, maxBody int64, logger *slog.Logger) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	buffered, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		logger.Warn("failed to read request body for capture", "error", err, "url", r.URL.Path)
		r.Body = io.NopCloser(bytes.NewReader(buffered))
		return ""
	}

	rest := r.Body
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(buffered), rest),
		Closer: rest,
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(buffered, &payload); err != nil || len(payload) == 0 {
		return ""
	}

	compact := &bytes.Buffer{}
	if err := json.Compact(compact, buffered); err != nil {
		return ""
	}
	return compact.String()
}

type readCloser struct {
	io.Reader
	io.Closer
}
