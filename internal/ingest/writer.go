// Package ingest provides the asynchronous write path between request
// handling and the record store. Request handlers enqueue records and
// continue immediately; a single consumer goroutine applies them to the
// store in enqueue order, so store IDs reflect acceptance order.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flytraphq/flytrap/internal/models"
	"github.com/flytraphq/flytrap/internal/store"
)

const (
	// DefaultQueueSize is the default capacity of the pending-write queue.
	DefaultQueueSize = 1024
	// DefaultWriteTimeout bounds each store write so a stalled database
	// cannot wedge the consumer goroutine forever.
	DefaultWriteTimeout = 5 * time.Second
)

// Writer is a fire-and-forget dispatcher in front of a RecordStore.
// Enqueue never blocks: when the queue is full the record is dropped
// and a warning logged. Store failures are logged and swallowed; they
// are never surfaced to the request that triggered the write.
type Writer struct {
	store        store.RecordStore
	logger       *slog.Logger
	queue        chan *models.LogRecord
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}

	dropped int64
}

// Option configures a Writer.
type Option func(*Writer)

// WithQueueSize sets the pending-write queue capacity.
func WithQueueSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.queue = make(chan *models.LogRecord, n)
		}
	}
}

// WithWriteTimeout sets the per-record store write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// NewWriter creates a Writer and starts its consumer goroutine.
func NewWriter(st store.RecordStore, logger *slog.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Writer{
		store:        st,
		logger:       logger,
		queue:        make(chan *models.LogRecord, DefaultQueueSize),
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w
}

// Enqueue hands a record to the write path. Returns false if the record
// was dropped because the queue is full or the writer is closed.
func (w *Writer) Enqueue(record *models.LogRecord) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		w.logger.Warn("record dropped: writer closed",
			"method", record.Method,
			"url", record.URL,
		)
		return false
	}

	select {
	case w.queue <- record:
		return true
	default:
		w.dropped++
		w.logger.Warn("record dropped: queue full",
			"method", record.Method,
			"url", record.URL,
			"dropped_total", w.dropped,
		)
		return false
	}
}

// run is the single consumer loop. One consumer preserves enqueue order
// through to the store's ID assignment.
func (w *Writer) run() {
	defer close(w.done)

	for record := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
		if err := w.store.Append(ctx, record); err != nil {
			w.logger.Error("failed to persist record",
				"error", err,
				"method", record.Method,
				"url", record.URL,
			)
		}
		cancel()
	}
}

// Close stops intake and drains the queue. Records enqueued before Close
// are written unless ctx expires first.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
