package async

import (
	"context"
	"fmt"
)

// Future is the pending result of an offloaded call.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result or for ctx to end. Giving up does not stop
// the offloaded call; it runs to completion and its result is dropped.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Run offloads fn. The job sees ctx's values but not its cancellation.
// Admission happens in the caller: with a saturated Pool, Run blocks until
// a slot frees up or ctx ends, in which case the Future holds ctx.Err().
func Run[T any](ctx context.Context, o Offloader, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	jobCtx := context.WithoutCancel(ctx)

	job := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("offloaded call panicked: %v", r)
			}
		}()
		f.val, f.err = fn(jobCtx)
	}
	if err := o.Go(ctx, job); err != nil {
		f.err = err
		close(f.done)
	}
	return f
}

func run0(ctx context.Context, o Offloader, fn func(context.Context) error) *Future[struct{}] {
	return Run(ctx, o, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
