package corio

import "context"

// SyncWait drives task to completion, blocking the calling thread: it
// installs the calling goroutine's wait on the task's completion channel
// as the root continuation. If ctx is cancelled before task completes,
// SyncWait returns ctx.Err() immediately without detaching from task —
// task keeps running and its result is simply discarded by the caller.
func SyncWait[T any](ctx context.Context, task *Task[T]) (T, error) {
	select {
	case <-task.ch:
		return task.result.Value, task.result.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WhenAll joins tasks, resuming once every one of them completes, and
// yields their results in input order. Per-task errors are reported in
// the corresponding Result, and callers inspect each Result.Err. WhenAll
// itself returns an error only when a wait ends with context.Canceled or
// context.DeadlineExceeded (ctx ending, or a task failing with one of
// those): it stops there and returns that error with the results
// gathered so far.
func WhenAll[T any](ctx context.Context, tasks ...*Task[T]) *Task[[]Result[T]] {
	return Spawn(ctx, func(ctx context.Context) ([]Result[T], error) {
		results := make([]Result[T], len(tasks))
		for i, t := range tasks {
			value, err := SyncWait(ctx, t)
			results[i] = Result[T]{Value: value, Err: err}
			if err == context.Canceled || err == context.DeadlineExceeded {
				return results, err
			}
		}
		return results, nil
	})
}
