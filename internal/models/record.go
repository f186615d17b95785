// Package models defines the data types shared across flytrap components.
package models

import "time"

// Origin tags used in the Method field for records that did not come
// from an HTTP request.
const (
	// MethodClientLog marks records submitted through the client log API.
	MethodClientLog = "CLIENT_LOG"
	// MethodWS marks fingerprint records received over the WebSocket channel.
	MethodWS = "WS"
)

// TimestampLayout is the fixed-width UTC timestamp format stored on every
// record. Fixed width keeps lexicographic comparison equivalent to
// chronological comparison, which the query filter relies on.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Now returns the current time formatted with TimestampLayout.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// LogRecord is one persisted event: an HTTP request, a client-submitted
// log entry, or a fingerprint submission. Records are immutable after
// insert; the only mutation the store supports is a whole-table purge.
type LogRecord struct {
	// ID is assigned by the store on insert. It is unique and strictly
	// increasing in insertion order, and is the ordering tie-break when
	// timestamps collide.
	ID int64 `json:"id"`
	// Method is the HTTP verb for request records, or one of the origin
	// tags (MethodClientLog, MethodWS) for non-HTTP records.
	Method string `json:"method"`
	// URL is the request path including query string, or the submitting
	// page's path for WebSocket records.
	URL string `json:"url"`
	// Headers is a JSON object mapping header names to their values.
	// "{}" for non-HTTP records.
	Headers string `json:"headers"`
	// Body is the serialized payload, or "" when the originating request
	// carried no usable body.
	Body string `json:"body"`
	// Timestamp is writer-assigned at interception time. It may not be
	// monotonic with ID under concurrent writers.
	Timestamp string `json:"timestamp"`
}

// ClientLogRequest is the payload accepted by the client log endpoint.
// Type is a free-form severity/category tag and is not validated against
// an enum; unknown values pass through.
type ClientLogRequest struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ClientLogEnvelope is the nested body stored for CLIENT_LOG records.
type ClientLogEnvelope struct {
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// FingerprintMessage is the shape of a WebSocket frame carrying a
// device fingerprint. Data holds the fingerprint attributes plus an
// "origin" field naming the submitting page.
type FingerprintMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}
