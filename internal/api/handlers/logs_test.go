package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flytraphq/flytrap/internal/models"
)

func seedRecords(t *testing.T, ms *memStore, n int) {
	t.Helper()
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		err := ms.Append(context.Background(), &models.LogRecord{
			Method:    "GET",
			URL:       "/seed",
			Headers:   "{}",
			Timestamp: base.Add(time.Duration(i) * time.Minute).Format(models.TimestampLayout),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func newLogsTest(ms *memStore) *LogsHandler {
	return NewLogsHandler(ms, 10000, 5*time.Second, testLogger())
}

func TestListReturnsNewestFirst(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 5)
	h := newLogsTest(ms)

	req := httptest.NewRequest("GET", "/api/logs", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var records []*models.LogRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Timestamp < records[i].Timestamp {
			t.Fatalf("not newest first at %d", i)
		}
	}
}

func TestListAppliesLimit(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 10)
	h := newLogsTest(ms)

	req := httptest.NewRequest("GET", "/api/logs?limit=4", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var records []*models.LogRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
}

func TestListNonNumericLimitFallsBackToCap(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 3)
	h := NewLogsHandler(ms, 2, 5*time.Second, testLogger())

	req := httptest.NewRequest("GET", "/api/logs?limit=banana", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var records []*models.LogRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The endpoint default cap applies instead of an unbounded query.
	if len(records) != 2 {
		t.Fatalf("expected capped result of 2, got %d", len(records))
	}
}

func TestListFiltersByStartTime(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 5)
	h := newLogsTest(ms)

	since := time.Date(2026, 8, 25, 9, 3, 0, 0, time.UTC).Format(models.TimestampLayout)
	req := httptest.NewRequest("GET", "/api/logs?startTime="+since, nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	var records []*models.LogRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records at or after %s, got %d", since, len(records))
	}
}

func TestListEmptyStoreReturnsEmptyArray(t *testing.T) {
	h := newLogsTest(&memStore{})

	req := httptest.NewRequest("GET", "/api/logs", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestListStorageFailureIsAServerError(t *testing.T) {
	ms := &memStore{queryErr: errors.New("database locked")}
	h := newLogsTest(ms)

	req := httptest.NewRequest("GET", "/api/logs", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	// A failed query must be distinguishable from an empty result.
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
	var ack Ack
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil || ack.Success {
		t.Fatalf("expected failure ack, got %s", rec.Body.String())
	}
}

func TestPurgeReportsDeletedCount(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 6)
	h := newLogsTest(ms)

	req := httptest.NewRequest("DELETE", "/api/logs", nil)
	rec := httptest.NewRecorder()
	h.Purge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var ack Ack
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil || !ack.Success {
		t.Fatalf("expected success ack, got %s", rec.Body.String())
	}
	if ack.Message != "deleted 6 log records" {
		t.Fatalf("message: got %q", ack.Message)
	}

	if count, _ := ms.Count(context.Background()); count != 0 {
		t.Fatalf("store not emptied: %d records remain", count)
	}
}

func TestPurgeFailureIsAServerError(t *testing.T) {
	ms := &memStore{purgeErr: errors.New("io error")}
	h := newLogsTest(ms)

	req := httptest.NewRequest("DELETE", "/api/logs", nil)
	rec := httptest.NewRecorder()
	h.Purge(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	ms := &memStore{}
	seedRecords(t, ms, 3)
	h := newLogsTest(ms)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var stats map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats["record_count"] != 3 {
		t.Fatalf("record_count: got %d", stats["record_count"])
	}
}
