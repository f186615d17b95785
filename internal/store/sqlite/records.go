package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/flytraphq/flytrap/internal/models"
	"github.com/flytraphq/flytrap/internal/store"
)

// Append inserts a record and assigns its ID from the insert.
func (s *SQLiteStore) Append(ctx context.Context, record *models.LogRecord) error {
	query := `
		INSERT INTO records (method, url, headers, body, timestamp)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`

	headers := record.Headers
	if headers == "" {
		headers = "{}"
	}
	if record.Timestamp == "" {
		record.Timestamp = models.Now()
	}

	err := s.writeDB.QueryRowContext(ctx, query,
		record.Method,
		record.URL,
		headers,
		record.Body,
		record.Timestamp,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	record.Headers = headers

	return nil
}

// Query retrieves records ordered by timestamp descending, with ID as
// the tie-break so ordering is stable when timestamps collide.
func (s *SQLiteStore) Query(ctx context.Context, filter store.QueryFilter) ([]*models.LogRecord, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, method, url, headers, body, timestamp
		FROM records`)

	var args []any
	if filter.Since != "" {
		sb.WriteString(" WHERE timestamp >= ?")
		args = append(args, filter.Since)
	}
	sb.WriteString(" ORDER BY timestamp DESC, id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.readDB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// Purge deletes all records and returns the number of rows removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	result, err := s.writeDB.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return 0, fmt.Errorf("purging records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged records: %w", err)
	}

	s.logger.Info("records purged", "deleted", deleted)
	return deleted, nil
}

// Count returns the number of persisted records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.readDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// Stats returns the record count and on-disk database size.
func (s *SQLiteStore) Stats(ctx context.Context) (store.Stats, error) {
	var stats store.Stats

	count, err := s.Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.RecordCount = count

	// Database size via page_count * page_size.
	err = s.readDB.QueryRowContext(ctx,
		`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`,
	).Scan(&stats.DatabaseSizeBytes)
	if err != nil {
		return stats, fmt.Errorf("reading database size: %w", err)
	}

	return stats, nil
}

// scanRecords scans multiple record rows.
func (s *SQLiteStore) scanRecords(rows *sql.Rows) ([]*models.LogRecord, error) {
	var records []*models.LogRecord

	for rows.Next() {
		record := &models.LogRecord{}

		err := rows.Scan(
			&record.ID,
			&record.Method,
			&record.URL,
			&record.Headers,
			&record.Body,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}

	return records, nil
}
