// Package sqlite provides the SQLite implementation of the store interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds SQLite connection configuration.
type Config struct {
	// Path is the filesystem path to the database file. The parent
	// directory must exist. ":memory:" is accepted for tests.
	Path string
	// MaxReadConns caps the read connection pool.
	MaxReadConns int
	// ConnMaxIdleTime bounds how long idle read connections are kept.
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxReadConns:    4,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// SQLiteStore implements store.RecordStore using a local SQLite file.
//
// Two handles share the database: writeDB is capped at a single
// connection so inserts are applied strictly in the order Append is
// called and ID assignment can never interleave; readDB serves
// concurrent queries against a consistent WAL snapshot.
type SQLiteStore struct {
	writeDB *sql.DB
	readDB  *sql.DB
	logger  *slog.Logger
}

// Open creates a new SQLite store with the given configuration,
// creating the database file and schema if they do not exist. Safe to
// call at every process start.
func Open(cfg *Config, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := dataSourceName(cfg.Path)

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read handle: %w", err)
	}
	readDB.SetMaxOpenConns(cfg.MaxReadConns)
	readDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := writeDB.PingContext(ctx); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &SQLiteStore{
		writeDB: writeDB,
		readDB:  readDB,
		logger:  logger,
	}

	if err := s.initialize(ctx); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, err
	}

	logger.Info("opened SQLite database", "path", cfg.Path)
	return s, nil
}

// dataSourceName builds the DSN with the pragmas every connection needs:
// WAL journaling so readers are not blocked by the writer, and a busy
// timeout so a momentarily locked database retries instead of failing.
func dataSourceName(path string) string {
	return "file:" + url.PathEscape(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
}

// initialize ensures the records table and its index exist. Idempotent.
func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			method    TEXT NOT NULL,
			url       TEXT NOT NULL,
			headers   TEXT NOT NULL DEFAULT '{}',
			body      TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
	`
	if _, err := s.writeDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes both database handles.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite database")
	readErr := s.readDB.Close()
	if err := s.writeDB.Close(); err != nil {
		return err
	}
	return readErr
}
