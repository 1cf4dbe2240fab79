// Package mainloop provides the single goroutine that owns the player state.
// Anything that touches the coordinator from another goroutine queues a
// function here, similarly to glib.IdleAdd.
package mainloop

import (
	"context"
	"sync"
)

// Loop is a FIFO of functions executed one at a time by Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// New creates a new loop. Functions queued before Run is called are kept.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// IdleAdd queues fn to be called in the loop. It never blocks, so it is safe
// to call from inside the loop itself.
func (l *Loop) IdleAdd(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Invoke queues fn and waits until it has been called or ctx is done. It must
// not be called from inside the loop.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	l.IdleAdd(func() {
		fn()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run calls queued functions until ctx is done. Functions still queued when
// ctx is done are dropped.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for _, fn := range l.drain() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fns := l.pending
	l.pending = nil
	return fns
}
