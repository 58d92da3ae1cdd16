package corio

import (
	"context"
	"sync"

	"github.com/joeycumines/go-longpoll"
)

// Pool is a fixed-size worker pool that resumes suspended tasks. Rather
// than migrating a Go goroutine's real OS thread onto a worker — Go gives
// goroutines no such affinity to move — Pool models "schedule onto the
// pool" as admission through a bounded number of job slots: a caller's
// Schedule/Yield blocks until a worker is free to run its resumption,
// bounding how many suspended tasks proceed concurrently to workerCount.
// This preserves fairness and a concurrency bound without pretending Go
// has stack-migratable coroutines.
type Pool struct {
	opts *poolOptions
	jobs chan func()

	closeOnce  sync.Once
	closed     chan struct{}
	workerCtx  context.Context
	workerStop context.CancelFunc
	wg         sync.WaitGroup
	state      *fastState
}

// NewPool constructs a standalone Pool. Most callers get one for free from
// NewScheduler; NewPool exists for embedders that want CPU-bound fan-out
// without an I/O scheduler attached.
func NewPool(opts ...PoolOption) *Pool {
	cfg := resolvePoolOptions(opts)
	workerCtx, stop := context.WithCancel(context.Background())
	p := &Pool{
		opts:       cfg,
		jobs:       make(chan func(), cfg.workerCount*4),
		closed:     make(chan struct{}),
		workerCtx:  workerCtx,
		workerStop: stop,
		state:      newFastState(),
	}
	p.state.Store(StateRunning)
	for i := 0; i < cfg.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// worker drains jobs in batches via go-longpoll's Channel helper: rather
// than a bare `for job := range p.jobs { job() }`, each worker collects up
// to a small batch (bounded wait per opts.drainWindow) before running them,
// cutting channel-receive overhead under sustained load while still
// reacting within drainWindow when the queue is sparse.
//
// p.jobs is never closed (a blocked submit racing a close would panic);
// shutdown instead cancels workerCtx, so Channel returns context.Canceled,
// and the worker then does one final non-blocking drain of whatever is
// still buffered before exiting.
func (p *Pool) worker(idx int) {
	defer p.wg.Done()
	cfg := &longpoll.ChannelConfig{MaxSize: 32, MinSize: 1, PartialTimeout: p.opts.drainWindow}
	run := func(job func()) error {
		job()
		p.opts.metrics.Counter("corio_pool_jobs_run").Add(1)
		return nil
	}
	for {
		err := longpoll.Channel(p.workerCtx, cfg, p.jobs, run)
		if err == nil {
			continue
		}
		if err != context.Canceled {
			p.opts.logger.Error("pool worker batch drain error", "worker", idx, "err", err)
		}
		break
	}
	for {
		select {
		case job := <-p.jobs:
			run(job)
		default:
			return
		}
	}
}

// submit enqueues job, waiting for capacity, ctx cancellation, or pool
// shutdown, whichever comes first.
func (p *Pool) submit(ctx context.Context, job func()) error {
	select {
	case <-p.closed:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return ErrPoolClosed
	}
}

// Schedule suspends the calling Task until a worker slot admits it,
// modeling the coroutine schedule() awaitable: "move execution onto the
// pool." Returns ctx.Err() if ctx is cancelled first, or ErrPoolClosed if
// the pool has already shut down.
func (p *Pool) Schedule(ctx context.Context) *Task[struct{}] {
	return Spawn(ctx, func(ctx context.Context) (struct{}, error) {
		done := make(chan struct{})
		if err := p.submit(ctx, func() { close(done) }); err != nil {
			return struct{}{}, err
		}
		select {
		case <-done:
			return struct{}{}, nil
		case <-ctx.Done():
			return struct{}{}, ctx.Err()
		}
	})
}

// Yield is Schedule's fairness-checkpoint sibling: a Task already running
// on the pool calls Yield to give other admitted tasks a turn before
// resuming. Structurally identical to Schedule — both are "wait for a free
// slot" — named separately because the call site's intent differs.
func (p *Pool) Yield(ctx context.Context) *Task[struct{}] {
	return p.Schedule(ctx)
}

// Go runs fn on a pool worker and returns a Task completing with its
// result. Unlike Schedule/Yield, Go carries a real payload rather than
// just admission, for CPU-bound work a caller wants run with bounded
// concurrency.
func Go[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Task[T] {
	return Spawn(ctx, func(ctx context.Context) (T, error) {
		var (
			result T
			fnErr  error
		)
		done := make(chan struct{})
		job := func() {
			defer close(done)
			result, fnErr = fn(ctx)
		}
		if err := p.submit(ctx, job); err != nil {
			var zero T
			return zero, err
		}
		select {
		case <-done:
			return result, fnErr
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	})
}

// Shutdown stops accepting new work and waits for the queue to drain and
// every worker to exit, or for ctx to expire first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.state.Store(StateTerminating)
		close(p.closed)
		p.workerStop()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.state.Store(StateTerminated)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the pool's current lifecycle state.
func (p *Pool) State() SchedulerState { return p.state.Load() }
