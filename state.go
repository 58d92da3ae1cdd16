package corio

import "sync/atomic"

// SchedulerState is the lifecycle of a Scheduler or Pool.
//
// State Machine:
//
//	StateAwake (0) → StateRunning (3)      [run loop starts]
//	StateRunning (3) → StateSleeping (2)   [blocked in poll via CAS]
//	StateSleeping (2) → StateRunning (3)   [poll wake via CAS]
//	StateRunning (3) → StateTerminating (4) [Close]
//	StateSleeping (2) → StateTerminating (4) [Close]
//	StateTerminating (4) → StateTerminated (1) [drain complete]
//
// Use TryTransition for the reversible Running/Sleeping pair, so a
// concurrent move into StateTerminating is never overwritten; Store is used
// for the one-way moves (a Pool entering StateRunning when constructed, and
// StateTerminating and StateTerminated on shutdown).
type SchedulerState uint64

const (
	// StateAwake is the zero value: constructed but its run loop has not
	// started.
	StateAwake SchedulerState = 0
	// StateTerminated is the terminal, fully-drained state.
	StateTerminated SchedulerState = 1
	// StateSleeping means the owning goroutine is blocked in the notifier's
	// poll, waiting for events, timers, or a wakeup.
	StateSleeping SchedulerState = 2
	// StateRunning means the owning goroutine is dispatching ready work.
	StateRunning SchedulerState = 3
	// StateTerminating means Close was called but drain has not completed.
	StateTerminating SchedulerState = 4
)

func (s SchedulerState) String() string {
	switch s {
	case StateAwake:
		return "awake"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// fastState is a lock-free state machine built on a single atomic word.
// corio's schedulers are not per-core hot paths contended at cache-line
// granularity, so no padding is added; the CAS-based transition discipline
// is what matters here.
type fastState struct {
	v atomic.Uint64
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

func (s *fastState) Load() SchedulerState {
	return SchedulerState(s.v.Load())
}

func (s *fastState) Store(state SchedulerState) {
	s.v.Store(uint64(state))
}

func (s *fastState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

func (s *fastState) TransitionAny(validFrom []SchedulerState, to SchedulerState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

func (s *fastState) IsTerminal() bool {
	return s.Load() == StateTerminated
}

func (s *fastState) IsRunning() bool {
	state := s.Load()
	return state == StateRunning || state == StateSleeping
}

func (s *fastState) CanAcceptWork() bool {
	state := s.Load()
	return state == StateAwake || state == StateRunning || state == StateSleeping
}
