// Package logger implements a non-blocking, batched vendor dispatch log.
//
// The dispatcher hands every result to Log, which only enqueues. A
// background goroutine writes the queue to slog in batches. When the queue
// is full (10 000 entries) new entries are dropped and counted in
// DroppedLogs, which the metrics registry samples on every scrape.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	channelBuffer = 10_000
	batchSize     = 100
	flushInterval = time.Second
)

// DispatchLog is one vendor dispatch as seen by the dispatcher.
type DispatchLog struct {
	ID        uuid.UUID
	Vendor    string
	Operation string
	// Mode is "mock" or "live".
	Mode string
	// Status is "success" or "error".
	Status string
	// Reason explains a mock result (missing_credentials, force_mock, ...).
	Reason    string
	Error     string
	LatencyMs int64
	CreatedAt time.Time
}

type Logger struct {
	queue     chan DispatchLog
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup

	dropped atomic.Int64

	baseCtx context.Context
	log     *slog.Logger
}

func New(ctx context.Context, slogger *slog.Logger) (*Logger, error) {
	if ctx == nil {
		return nil, fmt.Errorf("logger: context must not be nil")
	}
	if slogger == nil {
		slogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	l := &Logger{
		queue:   make(chan DispatchLog, channelBuffer),
		done:    make(chan struct{}),
		baseCtx: ctx,
		log:     slogger,
	}

	l.wg.Add(1)
	go l.run()

	return l, nil
}

// Log enqueues an entry. A zero ID is replaced with a fresh uuid. Entries
// logged after Close are counted as dropped.
func (l *Logger) Log(entry DispatchLog) {
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	select {
	case l.queue <- entry:
	default:
		l.dropped.Add(1)
	}
}

// DroppedLogs reports how many entries never reached the log.
func (l *Logger) DroppedLogs() int64 { return l.dropped.Load() }

// Close drains the queue and stops the background goroutine.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
	l.wg.Wait()
	return nil
}

func (l *Logger) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]DispatchLog, 0, batchSize)
	add := func(e DispatchLog) {
		batch = append(batch, e)
		if len(batch) >= batchSize {
			batch = l.write(batch)
		}
	}

	for {
		select {
		case e := <-l.queue:
			add(e)
		case <-ticker.C:
			batch = l.write(batch)
		case <-l.done:
			for {
				select {
				case e := <-l.queue:
					add(e)
				default:
					l.write(batch)
					return
				}
			}
		}
	}
}

// write emits batch and returns it emptied for reuse. Failed live calls are
// logged at warn so they stand out during a demo.
func (l *Logger) write(batch []DispatchLog) []DispatchLog {
	for _, e := range batch {
		level := slog.LevelInfo
		attrs := []slog.Attr{
			slog.String("id", e.ID.String()),
			slog.String("vendor", e.Vendor),
			slog.String("operation", e.Operation),
			slog.String("mode", e.Mode),
			slog.String("status", e.Status),
			slog.Int64("latency_ms", e.LatencyMs),
			slog.Time("created_at", normalizeTime(e.CreatedAt)),
		}
		if e.Reason != "" {
			attrs = append(attrs, slog.String("reason", e.Reason))
		}
		if e.Error != "" {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", e.Error))
		}
		l.log.LogAttrs(l.baseCtx, level, "dispatch", attrs...)
	}
	return batch[:0]
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
