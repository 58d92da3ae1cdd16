package corio

import "sync/atomic"

// PollOp is the interest a caller registers with the notifier.
type PollOp int

const (
	// OpRead watches for readability.
	OpRead PollOp = iota
	// OpWrite watches for writability.
	OpWrite
	// OpReadWrite watches for both readability and writability.
	OpReadWrite
)

func (op PollOp) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

// PollStatus is the terminal state of a poll.
type PollStatus int32

const (
	// StatusUnset is the zero value. Poll returns it only together with a
	// non-nil error, when the poll ended without a terminal status
	// (cancellation, scheduler close, or a registration failure).
	StatusUnset PollStatus = iota
	// StatusEvent indicates the watched interest became ready.
	StatusEvent
	// StatusTimeout indicates the deadline elapsed first.
	StatusTimeout
	// StatusClosed indicates the peer hung up.
	StatusClosed
	// StatusError indicates an OS-level failure.
	StatusError
)

func (s PollStatus) String() string {
	switch s {
	case StatusEvent:
		return "event"
	case StatusTimeout:
		return "timeout"
	case StatusClosed:
		return "closed"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// PollInfo is the scheduler's per-interest record: it links a pending
// continuation to an OS event source. At most one terminal status is ever
// written (enforced by a CAS on status); the continuation is resumed
// exactly once, after which the PollInfo may be discarded. This mirrors
// gaio's aiocb and the completion family's per-operation overlapped
// structure.
type PollInfo struct {
	ident     int // OS-level identity: fd, or a synthetic id for timer-only polls
	op        PollOp
	deadline  int64 // UnixNano; zero means no deadline
	timerOnly bool  // true if ident has no real OS handle to watch/unwatch

	status       atomic.Int32
	continuation func(PollStatus)

	// heap/list bookkeeping, owned exclusively by the scheduler goroutine.
	timerIdx int // index in the scheduler's timer heap, -1 if not queued
	cause    error
}

func newPollInfo(ident int, op PollOp, deadline int64, timerOnly bool, continuation func(PollStatus)) *PollInfo {
	return &PollInfo{ident: ident, op: op, deadline: deadline, timerOnly: timerOnly, continuation: continuation, timerIdx: -1}
}

// tryComplete attempts to set status as the first terminal status for this
// PollInfo. Returns true if this call won the race (and should therefore
// invoke the continuation); false if another source already completed it.
func (p *PollInfo) tryComplete(status PollStatus) bool {
	return p.status.CompareAndSwap(int32(StatusUnset), int32(status))
}

func (p *PollInfo) currentStatus() PollStatus {
	return PollStatus(p.status.Load())
}

// timerHeap is a min-heap of *PollInfo ordered by deadline, used by the
// scheduler to arm and fire timeout completions, grounded on gaio's
// timedHeap (container/heap over *aiocb, keyed by deadline).
type timerHeap []*PollInfo

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline < h[j].deadline }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].timerIdx = i
	h[j].timerIdx = j
}

func (h *timerHeap) Push(x any) {
	pi := x.(*PollInfo)
	pi.timerIdx = len(*h)
	*h = append(*h, pi)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	pi := old[n-1]
	old[n-1] = nil
	pi.timerIdx = -1
	*h = old[:n-1]
	return pi
}
