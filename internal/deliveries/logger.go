package deliveries

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/valinor-ai/muxrelay/internal/platform/database"
)

// LoggerConfig configures the async delivery logger.
type LoggerConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// AsyncLogger implements Logger with a buffered channel and background worker.
type AsyncLogger struct {
	ch     chan Record
	store  *Store
	db     database.Querier
	cfg    LoggerConfig
	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// NewAsyncLogger creates and starts an async delivery logger.
func NewAsyncLogger(db database.Querier, store *Store, cfg LoggerConfig) *AsyncLogger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &AsyncLogger{
		ch:     make(chan Record, cfg.BufferSize),
		store:  store,
		db:     db,
		cfg:    cfg,
		cancel: cancel,
	}

	l.wg.Add(1)
	go l.worker(ctx)

	return l
}

// Log enqueues a record. Never blocks the caller; drops if the buffer is full.
func (l *AsyncLogger) Log(_ context.Context, record Record) {
	select {
	case l.ch <- record:
	default:
		slog.Warn("delivery log buffer full, dropping record",
			"outcome", record.Outcome,
			"event_id", record.EventID,
		)
	}
}

// Close stops the worker and flushes whatever is still buffered.
func (l *AsyncLogger) Close() error {
	l.once.Do(func() {
		l.cancel()
		l.wg.Wait()
		l.flush(l.drainAll())
	})
	return nil
}

func (l *AsyncLogger) worker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	var batch []Record

	for {
		select {
		case <-ctx.Done():
			batch = append(batch, l.drainAll()...)
			l.flush(batch)
			return

		case r := <-l.ch:
			batch = append(batch, r)
			if len(batch) >= l.cfg.BatchSize {
				l.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = nil
			}
		}
	}
}

func (l *AsyncLogger) flush(records []Record) {
	if len(records) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.InsertBatch(ctx, l.db, records); err != nil {
		slog.Error("delivery log flush failed", "error", err, "count", len(records))
	}
}

func (l *AsyncLogger) drainAll() []Record {
	var records []Record
	for {
		select {
		case r := <-l.ch:
			records = append(records, r)
		default:
			return records
		}
	}
}
