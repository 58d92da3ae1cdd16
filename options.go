package corio

import (
	"runtime"
	"time"
)

// schedulerOptions holds configuration applied when constructing a
// Scheduler, resolved via SchedulerOption: worker count, logger, metrics,
// and notifier sizing.
type schedulerOptions struct {
	logger        Logger
	metrics       MetricsProvider
	workerCount   int
	notifierSize  int
	pollBatchSize int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption interface {
	applyScheduler(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) applyScheduler(o *schedulerOptions) { f(o) }

// WithLogger sets the Logger used by the Scheduler and its Pool. Defaults
// to a no-op logger.
func WithLogger(l Logger) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithMetrics sets the MetricsProvider used by the Scheduler and its Pool.
// Defaults to a no-op provider.
func WithMetrics(m MetricsProvider) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if m != nil {
			o.metrics = m
		}
	})
}

// WithWorkerCount sets the fixed number of worker goroutines backing the
// Scheduler's Pool. n <= 0 is ignored.
func WithWorkerCount(n int) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.workerCount = n
		}
	})
}

// WithNotifierBufferSize sets the per-poll readiness buffer capacity hint.
// This is advisory: the platform notifiers preallocate a fixed-size buffer
// and this option has no effect on them; it exists for future notifier
// implementations and for tests that want to assert the resolved value.
func WithNotifierBufferSize(n int) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.notifierSize = n
		}
	})
}

// WithPollBatchSize sets the resolved per-iteration dispatch batch size.
// The Scheduler's run loop does not read this value: each iteration
// dispatches every drained event before checking the timer heap.
func WithPollBatchSize(n int) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) {
		if n > 0 {
			o.pollBatchSize = n
		}
	})
}

func resolveSchedulerOptions(opts []SchedulerOption) *schedulerOptions {
	cfg := &schedulerOptions{
		logger:        NewNoOpLogger(),
		metrics:       NoopMetrics{},
		workerCount:   runtime.NumCPU(),
		notifierSize:  256,
		pollBatchSize: 128,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(cfg)
	}
	return cfg
}

// PoolOption configures a standalone Pool constructed directly via NewPool
// rather than through a Scheduler.
type PoolOption interface {
	applyPool(*poolOptions)
}

type poolOptions struct {
	logger      Logger
	metrics     MetricsProvider
	workerCount int
	drainWindow time.Duration
}

type poolOptionFunc func(*poolOptions)

func (f poolOptionFunc) applyPool(o *poolOptions) { f(o) }

// WithPoolLogger sets the Pool's Logger. Defaults to a no-op logger.
func WithPoolLogger(l Logger) PoolOption {
	return poolOptionFunc(func(o *poolOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithPoolMetrics sets the Pool's MetricsProvider. Defaults to a no-op
// provider.
func WithPoolMetrics(m MetricsProvider) PoolOption {
	return poolOptionFunc(func(o *poolOptions) {
		if m != nil {
			o.metrics = m
		}
	})
}

// WithPoolSize sets the fixed worker goroutine count. n <= 0 is ignored.
func WithPoolSize(n int) PoolOption {
	return poolOptionFunc(func(o *poolOptions) {
		if n > 0 {
			o.workerCount = n
		}
	})
}

// WithPoolDrainWindow bounds how long the ready-queue batch drain (via
// go-longpoll's Channel helper) waits to fill a batch before dispatching a
// partial one, trading a little latency for fairness across workers.
func WithPoolDrainWindow(d time.Duration) PoolOption {
	return poolOptionFunc(func(o *poolOptions) {
		if d > 0 {
			o.drainWindow = d
		}
	})
}

func resolvePoolOptions(opts []PoolOption) *poolOptions {
	cfg := &poolOptions{
		logger:      NewNoOpLogger(),
		metrics:     NoopMetrics{},
		workerCount: runtime.NumCPU(),
		drainWindow: 2 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyPool(cfg)
	}
	return cfg
}
