package corio

import (
	"container/list"
	"context"
	"sync"
)

// QueueState is the async queue's monotone lifecycle.
type QueueState int

const (
	QueueOpen QueueState = iota
	QueueShuttingDown
	QueueDrained
)

// Queue is an MPMC async queue: a single mutex protects the deque and
// waiter list; critical sections never span an await. Modeled on an
// open/waiter pattern common to microtask/macrotask queue implementations,
// generalized here to Queue's own three-state shutdown machine.
type Queue[T any] struct {
	mu      sync.Mutex
	state   QueueState
	items   *list.List // of T
	waiters *list.List // of *queueWaiter[T]
	metrics MetricsProvider
}

type queueWaiter[T any] struct {
	deliver func(T, error)
}

// NewQueue constructs an empty, open Queue.
func NewQueue[T any](metrics MetricsProvider) *Queue[T] {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Queue[T]{
		items:   list.New(),
		waiters: list.New(),
		metrics: metrics,
	}
}

// Push enqueues v, handing it directly to the oldest waiter if one is
// parked, or appending to the deque otherwise. Returns ErrStopped if the
// queue has reached QueueDrained.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.state == QueueDrained {
		q.mu.Unlock()
		return ErrStopped
	}
	if w := q.waiters.Front(); w != nil {
		q.waiters.Remove(w)
		waiter := w.Value.(*queueWaiter[T])
		q.mu.Unlock()
		waiter.deliver(v, nil)
		q.metrics.Counter("corio_queue_handoffs").Add(1)
		return nil
	}
	q.items.PushBack(v)
	q.mu.Unlock()
	q.metrics.Counter("corio_queue_pushes").Add(1)
	return nil
}

// Pop dequeues the oldest item, suspending the caller if the deque is
// empty and the queue is still open. Returns ErrStopped once the queue has
// left QueueOpen, even if items are still buffered in the deque.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	q.mu.Lock()
	if q.state != QueueOpen {
		q.mu.Unlock()
		var zero T
		return zero, ErrStopped
	}
	if e := q.items.Front(); e != nil {
		q.items.Remove(e)
		q.mu.Unlock()
		q.metrics.Counter("corio_queue_pops").Add(1)
		return e.Value.(T), nil
	}

	resultCh := make(chan Result[T], 1)
	waiter := &queueWaiter[T]{deliver: func(v T, err error) {
		resultCh <- Result[T]{Value: v, Err: err}
	}}
	elem := q.waiters.PushBack(waiter)
	q.mu.Unlock()

	select {
	case r := <-resultCh:
		return r.Value, r.Err
	case <-ctx.Done():
		q.mu.Lock()
		q.waiters.Remove(elem)
		q.mu.Unlock()
		var zero T
		return zero, ctx.Err()
	}
}

// TryPop is the non-suspending probe: ErrEmpty if the deque is empty and
// the queue is open, ErrStopped if not open, else the dequeued value.
func (q *Queue[T]) TryPop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.state != QueueOpen {
		return zero, ErrStopped
	}
	if e := q.items.Front(); e != nil {
		q.items.Remove(e)
		q.metrics.Counter("corio_queue_pops").Add(1)
		return e.Value.(T), nil
	}
	return zero, ErrEmpty
}

// Shutdown transitions QueueOpen -> QueueShuttingDown -> QueueDrained,
// waking every waiter with ErrStopped. Items already in the deque are not
// consumed; Size still reflects them afterward.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	if q.state == QueueDrained {
		q.mu.Unlock()
		return
	}
	q.state = QueueShuttingDown
	var woken []*queueWaiter[T]
	for e := q.waiters.Front(); e != nil; e = e.Next() {
		woken = append(woken, e.Value.(*queueWaiter[T]))
	}
	q.waiters.Init()
	q.state = QueueDrained
	q.mu.Unlock()

	var zero T
	for _, w := range woken {
		w.deliver(zero, ErrStopped)
	}
}

// ShutdownDrain waits for the deque to empty — yielding on pool between
// checks rather than busy-spinning — before calling Shutdown. Any push
// that returned before ShutdownDrain began is guaranteed delivered to some
// consumer, provided at least one keeps popping.
func (q *Queue[T]) ShutdownDrain(ctx context.Context, pool *Pool) error {
	for {
		q.mu.Lock()
		empty := q.items.Len() == 0
		q.mu.Unlock()
		if empty {
			q.Shutdown()
			return nil
		}
		if _, err := pool.Yield(ctx).Await(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Size returns the number of items currently buffered in the deque
// (waiters are not counted).
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// State reports the queue's current lifecycle state, for tests and
// diagnostics.
func (q *Queue[T]) State() QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}
