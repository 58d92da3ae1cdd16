package corio

import "sync/atomic"

// Signal is a boolean latch used to emulate cross-thread wakeups on
// notifiers that have no native level-triggered cross-thread primitive.
// Set and Unset are idempotent and concurrent-safe; while set, a Scheduler
// watching it via Scheduler.WatchSignal consumes one wakeup per drain cycle
// and clears the signal.
type Signal struct {
	pending atomic.Bool
	watcher atomic.Pointer[signalWatch]
}

type signalWatch struct {
	tag    any
	notify chan<- signalEvent
}

type signalEvent struct {
	tag any
}

// Set marks the signal pending. If a watcher is registered, it is woken
// exactly once; additional Set calls before the watcher drains the
// pending wakeup are no-ops (no wakeups accumulate beyond one pending).
func (s *Signal) Set() {
	if !s.pending.CompareAndSwap(false, true) {
		return
	}
	if w := s.watcher.Load(); w != nil {
		select {
		case w.notify <- signalEvent{tag: w.tag}:
		default:
			// A wakeup is already in flight on the channel; the pending
			// flag stays true until the watcher drains it via Unset, so
			// no delivery is lost.
		}
	}
}

// Unset clears the pending flag. After Unset clears the only pending set,
// no further delivery occurs until the next Set.
func (s *Signal) Unset() {
	s.pending.Store(false)
}

// IsSet reports whether the signal currently has a pending wakeup.
func (s *Signal) IsSet() bool { return s.pending.Load() }

// watch registers notify to receive one signalEvent per Set while this
// Signal has no other active watcher. It is called by Scheduler.WatchSignal;
// exported indirectly through that method rather than directly, since a
// Signal's watcher is scheduler-owned state.
func (s *Signal) watch(tag any, notify chan<- signalEvent) {
	s.watcher.Store(&signalWatch{tag: tag, notify: notify})
	if s.pending.Load() {
		select {
		case notify <- signalEvent{tag: tag}:
		default:
		}
	}
}

// unwatch removes the registered watcher, if any.
func (s *Signal) unwatch() {
	s.watcher.Store(nil)
}
