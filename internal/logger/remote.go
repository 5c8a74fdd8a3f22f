package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	defaultRemoteBufferSize   = 1024
	defaultRemoteFlushTimeout = 5 * time.Second
)

// RemoteOptions configures the buffer in front of a remote log sink.
type RemoteOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// remoteQueue delivers records from a single goroutine. Records pushed
// while the buffer is full are counted and discarded.
type remoteQueue struct {
	records      chan queuedRecord
	done         chan struct{}
	flushTimeout time.Duration
	closed       atomic.Bool
	dropped      atomic.Uint64
}

func newRemoteQueue(opts RemoteOptions) *remoteQueue {
	size := opts.BufferSize
	if size <= 0 {
		size = defaultRemoteBufferSize
	}
	flush := opts.FlushTimeout
	if flush <= 0 {
		flush = defaultRemoteFlushTimeout
	}

	q := &remoteQueue{
		records:      make(chan queuedRecord, size),
		done:         make(chan struct{}),
		flushTimeout: flush,
	}
	go q.drain()
	return q
}

func (q *remoteQueue) drain() {
	defer close(q.done)
	for rec := range q.records {
		_ = rec.handler.Handle(rec.ctx, rec.record)
	}
}

func (q *remoteQueue) push(rec queuedRecord) {
	if q.closed.Load() {
		return
	}
	select {
	case q.records <- rec:
	default:
		q.dropped.Add(1)
	}
}

func (q *remoteQueue) close(ctx context.Context) error {
	if q.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flushTimeout)
		defer cancel()
	}
	close(q.records)

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RemoteHandler queues records for a network-backed handler so logging
// never waits on the remote sink.
type RemoteHandler struct {
	queue   *remoteQueue
	handler slog.Handler
}

// NewRemoteHandler starts the delivery goroutine for handler.
func NewRemoteHandler(handler slog.Handler, opts RemoteOptions) *RemoteHandler {
	return &RemoteHandler{
		queue:   newRemoteQueue(opts),
		handler: handler,
	}
}

func (h *RemoteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RemoteHandler) Handle(ctx context.Context, r slog.Record) error {
	h.queue.push(queuedRecord{
		// Delivery happens after the request ends; keep values, drop cancellation.
		ctx:     context.WithoutCancel(ctx),
		record:  r.Clone(),
		handler: h.handler,
	})
	return nil
}

func (h *RemoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RemoteHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

func (h *RemoteHandler) WithGroup(name string) slog.Handler {
	return &RemoteHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded on a full buffer.
func (h *RemoteHandler) Dropped() uint64 {
	if h == nil || h.queue == nil {
		return 0
	}
	return h.queue.dropped.Load()
}

// Shutdown delivers queued records, waiting at most until ctx ends or the
// flush timeout passes when ctx has no deadline. Later records are ignored.
func (h *RemoteHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	return h.queue.close(ctx)
}

// teeHandler writes every record to the local handler and to the remote
// handler when its level allows.
type teeHandler struct {
	local  slog.Handler
	remote slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.remote.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.local.Enabled(ctx, r.Level) {
		err = h.local.Handle(ctx, r.Clone())
	}
	if h.remote.Enabled(ctx, r.Level) {
		_ = h.remote.Handle(ctx, r)
	}
	return err
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{local: h.local.WithAttrs(attrs), remote: h.remote.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{local: h.local.WithGroup(name), remote: h.remote.WithGroup(name)}
}
