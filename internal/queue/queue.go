// Package queue provides the bounded worker pool that executes asynchronous
// queries off the request path.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"sqldesk/internal/domain"
)

// WorkerPool runs enqueued tasks on a fixed number of workers. Enqueue never
// blocks: when the buffer is full the submission is rejected so the caller
// can surface backpressure instead of hanging a request goroutine.
type WorkerPool struct {
	tasks   chan func(ctx context.Context)
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	mu      sync.Mutex
	stopped bool
}

var _ domain.TaskQueue = (*WorkerPool)(nil)

// NewWorkerPool creates and starts a pool with the given worker count and
// task buffer depth.
func NewWorkerPool(workers, depth int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	p := &WorkerPool{
		tasks:  make(chan func(ctx context.Context), depth),
		group:  g,
		ctx:    gctx,
		cancel: cancel,
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		g.Go(p.worker)
	}
	return p
}

// Enqueue submits a task for background execution. Returns a ValidationError
// when the pool is shut down or its buffer is full.
func (p *WorkerPool) Enqueue(task func(ctx context.Context)) error {
	if task == nil {
		return domain.ErrValidation("task is required")
	}

	// The send must happen under the same lock that Shutdown closes the
	// channel under, or a racing Enqueue would send on a closed channel.
	// The send is non-blocking, so the critical section stays bounded.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return domain.ErrValidation("task queue is shut down")
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return domain.ErrValidation("task queue is full")
	}
}

// Shutdown stops accepting work and drains tasks already enqueued. Workers
// receive a canceled context only after the drain deadline passes via ctx.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *WorkerPool) worker() error {
	for task := range p.tasks {
		p.run(task)
	}
	return nil
}

// run isolates one task so a panic inside untrusted query work cannot take
// the worker down.
func (p *WorkerPool) run(task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}
