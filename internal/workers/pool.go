package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"media-indexer/internal/logging"
)

// ErrPoolClosed is returned by Submit once Close has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// PoolOptions holds optional hooks for a Pool.
type PoolOptions struct {
	// OnInFlight is called with the number of running tasks whenever it changes.
	OnInFlight func(n int64)
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	size     int
	tasks    chan task
	group    errgroup.Group
	mu       sync.RWMutex
	closed   bool
	inFlight atomic.Int64
	opts     PoolOptions
}

// NewPool starts size worker goroutines. A size below 1 is treated as 1.
func NewPool(size int, opts PoolOptions) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		size:  size,
		tasks: make(chan task),
		opts:  opts,
	}

	for i := 0; i < size; i++ {
		p.group.Go(func() error {
			for t := range p.tasks {
				t.done <- p.run(t)
			}
			return nil
		})
	}

	logging.Debug("worker pool started with %d workers", size)
	return p
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int {
	return p.size
}

// InFlight returns the number of tasks currently executing.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

func (p *Pool) run(t task) (err error) {
	if ctxErr := t.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	p.track(1)
	defer p.track(-1)

	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic in pool task: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return t.fn(t.ctx)
}

func (p *Pool) track(delta int64) {
	n := p.inFlight.Add(delta)
	if p.opts.OnInFlight != nil {
		p.opts.OnInFlight(n)
	}
}

// Submit runs fn on the pool and waits for it to finish. It returns ctx.Err()
// if the context is cancelled before a worker picks the task up.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}

	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case p.tasks <- t:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	return <-t.done
}

// Close stops accepting tasks and waits for running ones to finish.
// It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	return p.group.Wait()
}
