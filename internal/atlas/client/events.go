package client

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"go.uber.org/zap"
)

const (
	defaultFlushAt       = 1
	defaultFlushInterval = 10 * time.Second
	maxPendingEvents     = 10000
	flushTimeout         = 5 * time.Second
)

type sendFunc func(ctx context.Context, events []atlasdomain.FeatureEvent) error

// eventQueue buffers usage events until flushAt is reached or the interval
// ticker fires. A failed flush puts the batch back in front of newer events.
type eventQueue struct {
	flushAt  int
	interval time.Duration
	send     sendFunc
	log      *zap.Logger

	mu      sync.Mutex
	pending []atlasdomain.FeatureEvent

	// flushMu serializes sends so a batch is never delivered twice.
	flushMu sync.Mutex

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	done      chan struct{}
}

func newEventQueue(flushAt int, interval time.Duration, send sendFunc, log *zap.Logger) *eventQueue {
	if flushAt <= 0 {
		flushAt = defaultFlushAt
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &eventQueue{
		flushAt:  flushAt,
		interval: interval,
		send:     send,
		log:      log,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// enqueue appends events and reports whether the flush threshold is reached.
func (q *eventQueue) enqueue(events []atlasdomain.FeatureEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, events...)
	if overflow := len(q.pending) - maxPendingEvents; overflow > 0 {
		q.log.Warn("event queue full, dropping oldest events", zap.Int("dropped", overflow))
		q.pending = append([]atlasdomain.FeatureEvent(nil), q.pending[overflow:]...)
	}
	return len(q.pending) >= q.flushAt
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *eventQueue) flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := q.send(ctx, batch); err != nil {
		q.mu.Lock()
		q.pending = append(batch, q.pending...)
		q.mu.Unlock()
		q.log.Warn("event flush failed", zap.Int("events", len(batch)), zap.Error(err))
		return err
	}

	q.log.Debug("events flushed", zap.Int("events", len(batch)))
	return nil
}

func (q *eventQueue) start() {
	q.startOnce.Do(func() {
		go q.run()
	})
}

func (q *eventQueue) run() {
	defer close(q.done)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.quit:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			_ = q.flush(ctx)
			cancel()
		}
	}
}

// stop ends the ticker loop, if it was started, and performs a final flush.
func (q *eventQueue) stop(ctx context.Context) error {
	q.stopOnce.Do(func() {
		close(q.quit)
	})

	started := true
	q.startOnce.Do(func() { started = false })
	if started {
		select {
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return q.flush(ctx)
}

func newEventID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
