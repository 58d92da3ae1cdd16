package corio

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error message, mirroring the pack's
// convention of scoping error text to the owning package.
const Namespace = "corio"

var (
	// ErrTimeout indicates a deadline elapsed before an event arrived.
	ErrTimeout = errors.New(Namespace + ": deadline elapsed before event")
	// ErrClosed indicates a peer hangup or explicit shutdown.
	ErrClosed = errors.New(Namespace + ": closed")
	// ErrStopped indicates a queue or pool has shut down.
	ErrStopped = errors.New(Namespace + ": stopped")
	// ErrEmpty indicates a non-blocking probe found no item.
	ErrEmpty = errors.New(Namespace + ": empty")
	// ErrWatcherClosed indicates the scheduler has already been closed.
	ErrWatcherClosed = errors.New(Namespace + ": scheduler closed")
	// ErrPoolClosed indicates the thread pool has already shut down.
	ErrPoolClosed = errors.New(Namespace + ": pool closed")
	// ErrUnsupported indicates an operation was attempted on an unsupported value.
	ErrUnsupported = errors.New(Namespace + ": unsupported")
	// ErrExclusiveWaiter indicates a second waiter tried to register against
	// a poll_info that is still owned by an earlier, unresolved waiter.
	ErrExclusiveWaiter = errors.New(Namespace + ": poll_info already has a waiter")
)

// PollError attaches the terminal PollStatus and, when Status is
// StatusError, the originating OS error to a returned error value.
type PollError struct {
	Status PollStatus
	Cause  error
}

func (e *PollError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: poll %s: %v", Namespace, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s: poll %s", Namespace, e.Status)
}

// Unwrap exposes the OS-level cause for errors.Is/errors.As.
func (e *PollError) Unwrap() error { return e.Cause }

// TaskError correlates a task failure (including a recovered panic) with
// the task's identity, for diagnosis across WhenAll/pool fan-out.
type TaskError struct {
	err error
	id  uint64
}

func newTaskError(err error, id uint64) error {
	if err == nil {
		return nil
	}
	return &TaskError{err: err, id: id}
}

func (e *TaskError) Error() string { return e.err.Error() }
func (e *TaskError) Unwrap() error { return e.err }

// TaskID returns the identity of the task that produced this error.
func (e *TaskError) TaskID() uint64 { return e.id }

// ExtractTaskID returns the id of the task that produced err, if err (or
// something it wraps) is a *TaskError.
func ExtractTaskID(err error) (uint64, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.TaskID(), true
	}
	return 0, false
}

// fatal reports an invariant violation or unrecoverable resource failure.
// Per the error handling design, these are never recovered by the
// scheduler: the process must terminate rather than continue with
// corrupted runtime state.
func fatal(logger Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	panic(fmt.Sprintf("%s: fatal: %s", Namespace, fmt.Sprint(append([]any{msg}, args...)...)))
}
