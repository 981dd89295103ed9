package engine

import (
	"context"
	"log/slog"
	"sync"
)

// job is the unit of work dispatched to a worker.
type job[T, R any] struct {
	payload T
	reply   chan<- R // buffered; nil for fire-and-forget
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
type workerPool[T, R any] struct {
	queue   chan job[T, R]
	process func(ctx context.Context, t T) R
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) R) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan job[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			p.handle(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

// handle runs one job. A panicking job replies with the zero R so the
// caller is not left waiting for its deadline.
func (p *workerPool[T, R]) handle(ctx context.Context, j job[T, R]) {
	var res R
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic", "panic", r)
		}
		if j.reply != nil {
			j.reply <- res
		}
	}()
	res = p.process(ctx, j.payload)
}

// Submit enqueues a job without blocking (returns false if full or drained).
func (p *workerPool[T, R]) Submit(t T, reply chan<- R) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- job[T, R]{payload: t, reply: reply}:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish. Safe to call twice.
func (p *workerPool[T, R]) Drain() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueLen returns how many jobs are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
