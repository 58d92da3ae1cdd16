package corio

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Result is the typed outcome of a Task[T]: either a Value or an Err, never
// both meaningfully populated.
type Result[T any] struct {
	Value T
	Err   error
}

var taskIDs atomic.Uint64

// Task is a stackless-in-spirit resumable computation with a typed result
// slot and a continuation link. Go has no native coroutine frame to
// suspend and resume, so a Task is backed by a goroutine that runs fn to
// completion and parks nowhere itself; "suspension" happens inside fn, at
// an Awaitable boundary (Scheduler.Poll, Pool.Schedule, Queue.Pop, a timer,
// or a Signal wait) — see DESIGN.md.
//
// A Task is never copied; it may be passed by pointer while suspended,
// since only the pointer — never a stack — needs to move.
type Task[T any] struct {
	id           uint64
	done         atomic.Bool
	result       Result[T]
	continuation atomic.Pointer[func()]
	ch           chan struct{}
}

// Spawn starts fn on its own goroutine and returns a Task that completes
// with fn's result. fn receives ctx so it can observe cancellation at its
// own suspension points; Spawn does not cancel ctx itself.
func Spawn[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{id: taskIDs.Add(1), ch: make(chan struct{})}
	go func() {
		defer t.finish()
		value, err := t.runCatchingPanic(ctx, fn)
		t.result = Result[T]{Value: value, Err: err}
	}()
	return t
}

func (t *Task[T]) runCatchingPanic(ctx context.Context, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newTaskError(fmt.Errorf("task panicked: %v", r), t.id)
		}
	}()
	return fn(ctx)
}

// finish marks the task done, resumes its continuation (if one was
// attached via Suspend), and closes the completion channel relied on by
// Await/SyncWait. Resumption happens exactly once, tail-called from the
// completing goroutine, so chains of nested awaits never consume
// unbounded native stack.
func (t *Task[T]) finish() {
	t.done.Store(true)
	close(t.ch)
	if cont := t.continuation.Swap(nil); cont != nil {
		(*cont)()
	}
}

// ID returns the task's runtime-unique identity, used to correlate
// TaskError values back to the task that produced them.
func (t *Task[T]) ID() uint64 { return t.id }

// Ready reports whether the task's value is already available, letting a
// caller skip suspension entirely.
func (t *Task[T]) Ready() bool { return t.done.Load() }

// Suspend attaches continuation to be invoked exactly once, when the task
// completes. If the task is already done, continuation runs inline,
// immediately, since there is nothing left to suspend on. Several
// continuations may be attached; they are chained and run in the order
// they were attached.
func (t *Task[T]) Suspend(continuation func()) {
	if t.done.Load() {
		continuation()
		return
	}
	for {
		old := t.continuation.Load()
		next := continuation
		if old != nil {
			prev := *old
			next = func() { prev(); continuation() }
		}
		if t.continuation.CompareAndSwap(old, &next) {
			break
		}
	}
	// finish() may have already run and swapped continuation out to nil
	// before observing it; re-check to avoid losing the wakeup.
	if t.done.Load() {
		if cont := t.continuation.Swap(nil); cont != nil {
			(*cont)()
		}
	}
}

// Await blocks the calling goroutine until the task completes and returns
// its Result, unpacked. Await does not itself suspend via the scheduler;
// SyncWait is its context-aware counterpart, and WhenAll waits on each
// task through SyncWait.
func (t *Task[T]) Await() (T, error) {
	<-t.ch
	return t.result.Value, t.result.Err
}
