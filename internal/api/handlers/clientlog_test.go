package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/models"
)

func newClientLogTest(t *testing.T) (*memStore, *ClientLogHandler) {
	t.Helper()
	ms := &memStore{}
	writer := ingest.NewWriter(ms, testLogger())
	t.Cleanup(func() { writer.Close(context.Background()) })
	return ms, NewClientLogHandler(writer, testLogger())
}

func TestClientLogCreate(t *testing.T) {
	ms, h := newClientLogTest(t)

	body := `{"type":"warning","message":"x"}`
	req := httptest.NewRequest("POST", "/api/log", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var ack Ack
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil || !ack.Success {
		t.Fatalf("expected success ack, got %s", rec.Body.String())
	}

	records := ms.waitForRecords(t, 1)
	record := records[0]
	if record.Method != models.MethodClientLog {
		t.Fatalf("method: got %s", record.Method)
	}
	if record.URL != "/api/log" {
		t.Fatalf("url: got %s", record.URL)
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(record.Body), &envelope); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if envelope["message"] != "x" {
		t.Fatalf("message: got %v", envelope["message"])
	}
	// data was absent from the request; the envelope must not invent it.
	if data, present := envelope["data"]; present && data != nil {
		t.Fatalf("expected data absent or null, got %v", data)
	}
	if ts, _ := envelope["timestamp"].(string); ts == "" {
		t.Fatal("envelope timestamp should default to current time")
	}
}

func TestClientLogKeepsSuppliedTimestampAndData(t *testing.T) {
	ms, h := newClientLogTest(t)

	body := `{"type":"engagement","message":"click","data":{"x":3},"timestamp":"2026-08-25T10:00:00.000Z"}`
	req := httptest.NewRequest("POST", "/api/log", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	records := ms.waitForRecords(t, 1)

	var envelope map[string]any
	if err := json.Unmarshal([]byte(records[0].Body), &envelope); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if envelope["timestamp"] != "2026-08-25T10:00:00.000Z" {
		t.Fatalf("request-supplied timestamp not kept: %v", envelope["timestamp"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["x"] != float64(3) {
		t.Fatalf("data not preserved: %v", envelope["data"])
	}
}

func TestClientLogUnknownTypePassesThrough(t *testing.T) {
	ms, h := newClientLogTest(t)

	req := httptest.NewRequest("POST", "/api/log", strings.NewReader(`{"type":"made-up-kind","message":"m"}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unknown type should be accepted, got %d", rec.Code)
	}
	ms.waitForRecords(t, 1)
}

func TestClientLogRejectsMalformedJSON(t *testing.T) {
	_, h := newClientLogTest(t)

	req := httptest.NewRequest("POST", "/api/log", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	var ack Ack
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil || ack.Success {
		t.Fatalf("expected failure ack, got %s", rec.Body.String())
	}
}
