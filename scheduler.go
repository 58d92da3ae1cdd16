package corio

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Scheduler is the I/O scheduler. It owns a platform notifier
// (poller_linux.go/poller_darwin.go/poller_windows.go) and a timer
// min-heap, exposes the Poll awaitable to user code, and dispatches
// completions onto its Pool. A single run goroutine alternates between
// blocking in the notifier and draining ready work, a two-phase
// poll/dispatch tick.
type Scheduler struct {
	opts     *schedulerOptions
	notifier *notifier
	pool     *Pool
	errLimit *errorLogLimiter

	mu      sync.Mutex
	heap    timerHeap
	pending map[int]*PollInfo
	signals map[*Signal]chan signalEvent

	state     *fastState
	closeOnce sync.Once
	closed    chan struct{}
	stopped   chan struct{}
	timerSeq  int
}

// NewScheduler constructs a Scheduler with its own Pool and starts its run
// loop immediately.
func NewScheduler(opts ...SchedulerOption) (*Scheduler, error) {
	cfg := resolveSchedulerOptions(opts)
	n, err := newNotifier()
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		opts:     cfg,
		notifier: n,
		pool: NewPool(
			WithPoolLogger(cfg.logger),
			WithPoolMetrics(cfg.metrics),
			WithPoolSize(cfg.workerCount),
		),
		errLimit: newErrorLogLimiter(),
		pending:  make(map[int]*PollInfo),
		signals:  make(map[*Signal]chan signalEvent),
		state:    newFastState(),
		closed:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Pool returns the thread pool backing this Scheduler, for callers that
// want to submit CPU-bound work (Go) alongside I/O waits.
func (s *Scheduler) Pool() *Pool { return s.pool }

// Poll registers a PollInfo bound to ident, arms a timer if timeout > 0,
// watches the interest, suspends until the first of {event, timeout,
// cancellation} resolves it, then unregisters the loser and reports the
// terminal PollStatus.
func (s *Scheduler) Poll(ctx context.Context, ident int, op PollOp, timeout time.Duration) (PollStatus, error) {
	return s.poll(ctx, ident, op, timeout, false)
}

// poll is Poll's implementation, with timerOnly controlling whether ident
// is a real OS handle to register with the notifier at all. ScheduleAfter
// calls this with timerOnly set, since its ident is a synthetic,
// strictly-negative placeholder with no corresponding fd/handle — passing
// it to notifier.watch/unwatch would either fail outright (EBADF on Linux)
// or collide with a reserved sentinel (the wake idents on Darwin/Windows).
func (s *Scheduler) poll(ctx context.Context, ident int, op PollOp, timeout time.Duration, timerOnly bool) (PollStatus, error) {
	if s.state.Load() == StateTerminated {
		return StatusUnset, ErrWatcherClosed
	}

	var deadline int64
	if timeout > 0 {
		deadline = time.Now().Add(timeout).UnixNano()
	}

	resolved := make(chan PollStatus, 1)
	pi := newPollInfo(ident, op, deadline, timerOnly, func(status PollStatus) {
		resolved <- status
	})

	s.mu.Lock()
	if _, exists := s.pending[ident]; exists {
		s.mu.Unlock()
		return StatusUnset, ErrExclusiveWaiter
	}
	s.pending[ident] = pi
	if deadline != 0 {
		heap.Push(&s.heap, pi)
	}
	s.mu.Unlock()

	if !timerOnly {
		if err := s.notifier.watch(ident, op); err != nil {
			s.removePending(pi)
			return StatusUnset, err
		}
	}
	s.wake()

	select {
	case status := <-resolved:
		s.removePending(pi)
		if !timerOnly {
			_ = s.notifier.unwatch(ident)
		}
		return status, s.statusError(pi, status)
	case <-ctx.Done():
		s.removePending(pi)
		if !timerOnly {
			_ = s.notifier.unwatch(ident)
		}
		if pi.tryComplete(StatusError) {
			pi.cause = ctx.Err()
		}
		return StatusUnset, ctx.Err()
	case <-s.closed:
		s.removePending(pi)
		if !timerOnly {
			_ = s.notifier.unwatch(ident)
		}
		return StatusUnset, ErrWatcherClosed
	}
}

func (s *Scheduler) statusError(pi *PollInfo, status PollStatus) error {
	switch status {
	case StatusTimeout:
		return &PollError{Status: status, Cause: ErrTimeout}
	case StatusError:
		return &PollError{Status: status, Cause: pi.cause}
	case StatusClosed:
		return &PollError{Status: status, Cause: ErrClosed}
	default:
		return nil
	}
}

func (s *Scheduler) removePending(pi *PollInfo) {
	s.mu.Lock()
	if s.pending[pi.ident] == pi {
		delete(s.pending, pi.ident)
	}
	if pi.timerIdx >= 0 {
		heap.Remove(&s.heap, pi.timerIdx)
	}
	s.mu.Unlock()
}

// ScheduleAfter returns a Task that completes, with no error, once d has
// elapsed — the scheduler's timer-only poll path (no notifier interest),
// used to implement a timer awaitable.
func (s *Scheduler) ScheduleAfter(ctx context.Context, d time.Duration) *Task[struct{}] {
	return Spawn(ctx, func(ctx context.Context) (struct{}, error) {
		if d <= 0 {
			return struct{}{}, nil
		}
		_, err := s.poll(ctx, s.nextTimerIdent(), OpRead, d, true)
		if pe, ok := err.(*PollError); ok && pe.Status == StatusTimeout {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
}

// nextTimerIdent allocates a synthetic, strictly negative identity for
// timer-only polls, so they can never collide with a real fd (always >= 0)
// in s.pending.
func (s *Scheduler) nextTimerIdent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerSeq--
	return s.timerSeq
}

// Yield delegates to the scheduler's Pool, giving other ready work a turn.
func (s *Scheduler) Yield(ctx context.Context) *Task[struct{}] {
	return s.pool.Yield(ctx)
}

// WatchSignal registers sig to deliver one wakeup per Set to the
// scheduler's run loop. On each drain cycle the run loop takes the pending
// wakeup, clears sig with Unset, and logs tag at debug level; the wakeup is
// not forwarded to any other consumer. The returned cancel func removes
// the registration.
func (s *Scheduler) WatchSignal(sig *Signal, tag any) (cancel func()) {
	ch := make(chan signalEvent, 1)
	sig.watch(tag, ch)

	s.mu.Lock()
	s.signals[sig] = ch
	s.mu.Unlock()
	s.wake()

	return func() {
		sig.unwatch()
		s.mu.Lock()
		delete(s.signals, sig)
		s.mu.Unlock()
	}
}

// wake prods a sleeping run loop to recompute its timeout, e.g. after a
// new, earlier timer was armed, or on Close.
func (s *Scheduler) wake() {
	_ = s.notifier.wake()
}

// run is the scheduler's single owning goroutine: block in the notifier,
// then drain whatever became ready (I/O events, expired timers, pending
// signals), dispatching each resolved continuation onto the pool.
func (s *Scheduler) run() {
	defer close(s.stopped)
	s.state.TryTransition(StateAwake, StateRunning)
	for {
		select {
		case <-s.closed:
			return
		default:
		}

		timeoutMs := s.nextTimeoutMs()
		s.state.TryTransition(StateRunning, StateSleeping)
		events, err := s.notifier.poll(timeoutMs)
		s.state.TryTransition(StateSleeping, StateRunning)
		if err != nil {
			if s.errLimit.allow("notifier-poll") {
				s.opts.logger.Error("notifier poll error", "err", err)
			}
			continue
		}

		s.dispatchEvents(events)
		s.dispatchExpiredTimers(time.Now().UnixNano())
		s.dispatchSignals()
	}
}

// nextTimeoutMs returns how long the notifier should block: -1 (forever)
// if the timer heap is empty, 0 if a timer has already expired, or the
// remaining time until the earliest deadline otherwise.
func (s *Scheduler) nextTimeoutMs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return -1
	}
	remaining := s.heap[0].deadline - time.Now().UnixNano()
	if remaining <= 0 {
		return 0
	}
	ms := remaining / int64(time.Millisecond)
	if ms <= 0 {
		return 1
	}
	return int(ms)
}

func (s *Scheduler) dispatchEvents(events []readyEvent) {
	for _, ev := range events {
		s.mu.Lock()
		pi, ok := s.pending[ev.ident]
		s.mu.Unlock()
		if !ok {
			continue
		}
		status := ev.events.toStatus()
		if pi.tryComplete(status) {
			s.resume(pi, status)
		}
	}
}

func (s *Scheduler) dispatchExpiredTimers(now int64) {
	s.mu.Lock()
	var fired []*PollInfo
	for len(s.heap) > 0 && s.heap[0].deadline <= now {
		fired = append(fired, heap.Pop(&s.heap).(*PollInfo))
	}
	s.mu.Unlock()

	for _, pi := range fired {
		if pi.tryComplete(StatusTimeout) {
			s.resume(pi, StatusTimeout)
		}
	}
}

func (s *Scheduler) dispatchSignals() {
	s.mu.Lock()
	watched := make(map[*Signal]chan signalEvent, len(s.signals))
	for sig, ch := range s.signals {
		watched[sig] = ch
	}
	s.mu.Unlock()

	for sig, ch := range watched {
		if !sig.IsSet() {
			continue
		}
		select {
		case ev := <-ch:
			sig.Unset()
			s.opts.logger.Debug("signal delivered", "tag", ev.tag)
		default:
		}
	}
}

// resume dispatches pi's continuation onto the pool so the notifier
// goroutine never blocks on user code; every Scheduler always owns a Pool
// (see NewScheduler), so there is no poolless foreground mode. submit is
// asynchronous from the notifier goroutine's perspective: a full ready
// queue backs up admission, not the drain loop.
func (s *Scheduler) resume(pi *PollInfo, status PollStatus) {
	go func() {
		_ = s.pool.submit(context.Background(), func() { pi.continuation(status) })
	}()
}

// Close stops the run loop, waits for it to exit, and shuts down the
// Pool. Pending Poll calls observe ErrWatcherClosed.
func (s *Scheduler) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.state.Store(StateTerminating)
		close(s.closed)
		s.wake()
	})
	select {
	case <-s.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		return err
	}
	_ = s.notifier.close()
	s.state.Store(StateTerminated)
	return nil
}

// State reports the scheduler's current lifecycle state.
func (s *Scheduler) State() SchedulerState { return s.state.Load() }
