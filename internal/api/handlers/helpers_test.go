package handlers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/flytraphq/flytrap/internal/models"
	"github.com/flytraphq/flytrap/internal/store"
)

// memStore is an in-memory RecordStore for handler tests.
type memStore struct {
	mu       sync.Mutex
	records  []*models.LogRecord
	queryErr error
	purgeErr error
	statsErr error
}

func (m *memStore) Append(ctx context.Context, record *models.LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *memStore) Query(ctx context.Context, filter store.QueryFilter) ([]*models.LogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	var out []*models.LogRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		record := m.records[i]
		if filter.Since != "" && record.Timestamp < filter.Since {
			continue
		}
		out = append(out, record)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Purge(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purgeErr != nil {
		return 0, m.purgeErr
	}
	n := int64(len(m.records))
	m.records = nil
	return n, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memStore) Stats(ctx context.Context) (store.Stats, error) {
	if m.statsErr != nil {
		return store.Stats{}, m.statsErr
	}
	count, _ := m.Count(ctx)
	return store.Stats{RecordCount: count, DatabaseSizeBytes: 4096}, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) snapshot() []*models.LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.LogRecord, len(m.records))
	copy(out, m.records)
	return out
}

// waitForRecords polls until the store holds want records.
func (m *memStore) waitForRecords(t *testing.T, want int) []*models.LogRecord {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if records := m.snapshot(); len(records) >= want {
			return records
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store never reached %d records", want)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
