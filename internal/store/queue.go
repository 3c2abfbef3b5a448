package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/queridometro/internal/metrics"
)

// task is one queued mutation. done is buffered so the worker never blocks
// on a caller.
type task struct {
	op   string
	run  func() error
	done chan error
}

// writeQueue runs tasks one at a time, in the order they were submitted.
type writeQueue struct {
	tasks   chan *task
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu guards closed and the send side of tasks, so a submit can never
	// race with close(tasks).
	mu      sync.RWMutex
	closed  bool
	pending atomic.Int64

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func newWriteQueue(size int, logger *slog.Logger, m *metrics.Metrics) *writeQueue {
	return &writeQueue{
		tasks:   make(chan *task, size),
		logger:  logger,
		metrics: m,
	}
}

func (q *writeQueue) start() {
	q.startOnce.Do(func() {
		q.wg.Add(1)
		go q.worker()
	})
}

// stop rejects new tasks, lets the worker drain what is already queued and
// waits for it to exit.
func (q *writeQueue) stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

// submit enqueues run and blocks until the worker has executed it.
func (q *writeQueue) submit(ctx context.Context, op string, run func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("store: %s not queued: %w", op, err)
	}
	t := &task{op: op, run: run, done: make(chan error, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	select {
	case q.tasks <- t:
		q.metrics.SetQueueDepth(int(q.pending.Add(1)))
	case <-ctx.Done():
		q.mu.RUnlock()
		return fmt.Errorf("store: %s not queued: %w", op, ctx.Err())
	}
	q.mu.RUnlock()

	return <-t.done
}

func (q *writeQueue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.metrics.SetQueueDepth(int(q.pending.Add(-1)))
		q.execute(t)
	}
}

// execute runs one task. A panic fails that task only; the worker carries on
// with the next one.
func (q *writeQueue) execute(t *task) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("store: %s panicked: %v", t.op, r)
			}
		}()
		return t.run()
	}()
	elapsed := time.Since(start)

	q.metrics.ObserveWrite(t.op, elapsed, err)
	if err != nil {
		q.logger.Debug("store write failed",
			slog.String("op", t.op),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
	}
	t.done <- err
}
