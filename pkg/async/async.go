// Package async provides a minimal Future for running a function off the
// calling goroutine and collecting its result later. The portal has exactly
// two asynchronous operations, the subscriptions fetch and the auto-renewal
// submission, and both are modelled as futures so callers can either await
// the outcome or let a completion callback apply it.
package async

import (
	"context"
	"time"
)

// Future holds the eventual result of a function started with Go.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Go runs fn on a new goroutine and returns a Future for its result. If the
// context is already cancelled the future resolves immediately with the
// context error, without invoking fn.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the future resolves and returns its result. It is safe
// to call from multiple goroutines and more than once.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitTimeout waits up to d for the future to resolve. On timeout it
// returns ErrTimeout; the underlying function keeps running.
func (f *Future[T]) AwaitTimeout(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(d):
		var zero T
		return zero, ErrTimeout
	}
}

// Done reports whether the future has resolved, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
