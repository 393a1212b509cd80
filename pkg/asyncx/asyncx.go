// Package asyncx has small helpers for running independent calls
// concurrently with a context.
package asyncx

import (
	"context"
	"sync"
	"time"
)

type outcome[T any] struct {
	value T
	err   error
}

// Future is the pending result of a call started with Go.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	res  outcome[T]
}

// Go starts fn in a goroutine. ctx is handed to fn as is.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := fn(ctx)
		f.once.Do(func() {
			f.res = outcome[T]{value: v, err: err}
			close(f.done)
		})
	}()
	return f
}

// Await waits for the result or for ctx to end. It may be called any
// number of times.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.res.value, f.res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WithTimeout runs fn with a deadline of d and returns
// context.DeadlineExceeded if fn has not returned by then.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return Go(ctx, fn).Await(ctx)
}
