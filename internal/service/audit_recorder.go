package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-auth-service/internal/model"
)

// AuditSink is the append-only store audit entries are written to.
type AuditSink interface {
	Append(ctx context.Context, entry model.AuditEntry) error
}

// AuditRecorder writes audit entries off the request path. Record never
// blocks and never fails the calling operation: entries go through a
// buffered channel to a single writer goroutine, and when the buffer is
// full the entry is dropped with a local warning rather than applying
// backpressure.
type AuditRecorder struct {
	sink         AuditSink
	entries      chan model.AuditEntry
	writeTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewAuditRecorder(sink AuditSink, buffer int) *AuditRecorder {
	if buffer <= 0 {
		buffer = 256
	}

	r := &AuditRecorder{
		sink:         sink,
		entries:      make(chan model.AuditEntry, buffer),
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}
	go r.run()

	return r
}

func (r *AuditRecorder) Record(entry model.AuditEntry) {
	if r == nil {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	select {
	case r.entries <- entry:
	default:
		slog.Warn("audit buffer full, dropping entry", "action", entry.Action, "status", entry.Status)
	}
}

func (r *AuditRecorder) run() {
	defer close(r.done)

	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.sink.Append(ctx, entry); err != nil {
			slog.Error("audit write failed", "action", entry.Action, "error", err)
		}
		cancel()
	}
}

// Close drains buffered entries and stops the writer. Record must not be
// called after Close.
func (r *AuditRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.entries)
		<-r.done
	})
}
