package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// errNotStarted marks a future whose work never ran because the context
// ended while it waited for a free worker slot.
var errNotStarted = errors.New("task was not started")

// Future is the eventual outcome of a submitted unit of work.
type Future struct {
	done  chan struct{}
	err   error
	start time.Time
	end   time.Time
}

// Done is closed once the work has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the work has finished and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Resolved reports whether the work has finished, without blocking.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the outcome. It must only be called once Done is closed.
func (f *Future) Err() error {
	return f.err
}

// Duration returns how long the work ran. Zero if it never started.
func (f *Future) Duration() time.Duration {
	if f.start.IsZero() {
		return 0
	}
	return f.end.Sub(f.start)
}

// Pool runs submitted work on goroutines, at most size at a time.
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup
}

// NewPool creates a pool with size worker slots. size must be positive.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of worker slots.
func (p *Pool) Size() int {
	return p.size
}

// Submit schedules fn and returns immediately. Work waits for a free slot
// inside its own goroutine so that the caller is never blocked. A panic in
// fn is recovered and reported as the future's error.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) *Future {
	f := &Future{done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(f.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.err = fmt.Errorf("%w: %w", errNotStarted, err)
			return
		}
		defer p.sem.Release(1)

		f.start = time.Now()
		defer func() {
			f.end = time.Now()
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.err = fn(ctx)
	}()
	return f
}

// Wait blocks until every submitted unit of work has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// waitAll blocks until every future in fs has resolved.
func waitAll(fs []*Future) {
	for _, f := range fs {
		<-f.done
	}
}
