// Package store provides database access interfaces for log records.
package store

import (
	"context"

	"github.com/flytraphq/flytrap/internal/models"
)

// QueryFilter narrows a record query. Zero-valued fields are not applied.
type QueryFilter struct {
	// Since is an inclusive lower bound on the record timestamp,
	// compared lexicographically (the stored format is fixed-width
	// ISO-8601, so string order is chronological order).
	Since string
	// Limit caps the number of returned rows after ordering. Zero or
	// negative means unbounded; callers are expected to impose a sane
	// cap before querying.
	Limit int
}

// Stats describes the current state of the backing database.
type Stats struct {
	// RecordCount is the number of persisted records.
	RecordCount int64 `json:"record_count"`
	// DatabaseSizeBytes is the on-disk size of the database, computed
	// from the page count and page size.
	DatabaseSizeBytes int64 `json:"database_size_bytes"`
}

// RecordStore is the append-only collection of LogRecord. Implementations
// serialize writes internally: concurrent Append calls never corrupt the
// table or skip/duplicate ID assignment, and concurrent reads observe a
// consistent snapshot as of call time.
type RecordStore interface {
	// Append inserts a record and assigns its ID. Records are applied in
	// the order Append is invoked.
	Append(ctx context.Context, record *models.LogRecord) error
	// Query returns records matching the filter ordered by timestamp
	// descending, ID descending. An empty result is not an error.
	Query(ctx context.Context, filter QueryFilter) ([]*models.LogRecord, error)
	// Purge deletes all records unconditionally and returns the number
	// of rows removed. Destructive and unrecoverable.
	Purge(ctx context.Context) (int64, error)
	// Count returns the number of persisted records.
	Count(ctx context.Context) (int64, error)
	// Stats returns storage statistics for the stats endpoint.
	Stats(ctx context.Context) (Stats, error)
	// Close closes the underlying database.
	Close() error
}
