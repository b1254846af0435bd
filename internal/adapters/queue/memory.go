package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"corporateevents/internal/domain"
)

// ErrClosed is returned by Enqueue after the queue has been stopped.
var ErrClosed = errors.New("task queue closed")

// Options tunes worker count and retry behavior shared by both queue backends.
type Options struct {
	Workers      int
	Buffer       int
	MaxAttempts  int
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Buffer <= 0 {
		o.Buffer = 64
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	return o
}

// backoff returns the delay before the given retry (attempt starts at 1).
func (o Options) backoff(attempt int) time.Duration {
	d := o.RetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// MemoryQueue runs tasks on in-process workers. Tasks still buffered when the
// process exits are lost.
type MemoryQueue struct {
	handler domain.TaskHandler
	opts    Options
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	tasks  chan *domain.Task
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewMemoryQueue creates a queue; call Start before enqueuing.
func NewMemoryQueue(handler domain.TaskHandler, opts Options, logger *slog.Logger) *MemoryQueue {
	opts = opts.withDefaults()
	return &MemoryQueue{
		handler: handler,
		opts:    opts,
		logger:  logger,
		tasks:   make(chan *domain.Task, opts.Buffer),
	}
}

// Start launches the workers. They stop retrying when ctx is cancelled or Stop is called.
func (q *MemoryQueue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for task := range q.tasks {
				q.run(ctx, task)
			}
		}()
	}
}

// Enqueue never blocks: a full buffer yields domain.ErrQueueFull.
func (q *MemoryQueue) Enqueue(_ context.Context, task *domain.Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Stop closes the queue, lets workers drain the buffer and waits for them.
// Pending retry delays are cut short.
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *MemoryQueue) run(ctx context.Context, task *domain.Task) {
	for {
		task.Attempt++
		err := q.handler.Handle(context.WithoutCancel(ctx), task)
		if err == nil {
			return
		}
		if task.Attempt >= q.opts.MaxAttempts {
			q.logger.Error("task failed permanently",
				"task_id", task.ID, "kind", task.Kind, "attempts", task.Attempt, "error", err)
			return
		}
		delay := q.opts.backoff(task.Attempt)
		q.logger.Warn("task failed, retrying",
			"task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "retry_in", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			q.logger.Warn("task retry abandoned on shutdown", "task_id", task.ID, "kind", task.Kind)
			return
		case <-timer.C:
		}
	}
}
