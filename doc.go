// Package corio provides a suspendable task runtime and asynchronous I/O
// notifier for Go.
//
// # Architecture
//
// The runtime is built around a [Scheduler] that owns an OS notifier (epoll
// on Linux, kqueue on Darwin/BSD) and a timer heap, and drives resumption of
// tasks suspended on I/O readiness, timers, or the in-process [Signal]
// primitive. A fixed-size [Pool] of worker goroutines resumes tasks taken
// off the scheduler's ready queue; a generic [Queue] provides the canonical
// suspendable many-producer many-consumer synchronization primitive used to
// exercise every resumption path.
//
// Go has no native stackless coroutine; corio models "suspension" as a
// goroutine parking on a channel receive, and "resumption" as a send to
// that channel performed by scheduler, pool, or notifier code. Every task
// is therefore backed by a real (if usually briefly-lived) goroutine stack,
// not a reusable frame — see DESIGN.md for the full rationale.
//
// # Platform support
//
// The notifier has two implementation families: a readiness family
// (epoll/kqueue, implemented here) and a completion family (IOCP on
// Windows, stubbed with the same observable contract).
//
// # Thread safety
//
// [Scheduler.Poll], [Pool.Schedule], [Queue.Push], and [Queue.Pop] are safe
// to call from any goroutine. A PollInfo's terminal status is set under a
// single atomic CAS, so exactly one terminal status is ever observed by a
// waiter no matter how many sources (event, timer, cancellation) race to
// resolve it.
//
// # Usage
//
//	sched, err := corio.NewScheduler(corio.WithWorkerCount(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Close(context.Background())
//
//	status, err := sched.Poll(ctx, fd, corio.OpRead, 50*time.Millisecond)
package corio
