package corio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_PushThenTryPop(t *testing.T) {
	q := NewQueue[int](nil)
	require.NoError(t, q.Push(1))
	require.Equal(t, 1, q.Size())

	v, err := q.TryPop()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 0, q.Size())
}

func TestQueue_TryPop_EmptyReturnsErrEmpty(t *testing.T) {
	q := NewQueue[int](nil)
	_, err := q.TryPop()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestQueue_Pop_SuspendsUntilPush(t *testing.T) {
	q := NewQueue[string](nil)

	type popResult struct {
		v   string
		err error
	}
	resultCh := make(chan popResult, 1)
	go func() {
		v, err := q.Pop(context.Background())
		resultCh <- popResult{v, err}
	}()

	time.Sleep(10 * time.Millisecond) // let Pop park as a waiter
	require.NoError(t, q.Push("hello"))

	select {
	case r := <-resultCh:
		require.NoError(t, r.err)
		require.Equal(t, "hello", r.v)
	case <-time.After(time.Second):
		t.Fatal("Pop never woke up")
	}
}

func TestQueue_Pop_HandsOffDirectlyWithoutBuffering(t *testing.T) {
	q := NewQueue[int](nil)

	popped := make(chan int, 1)
	go func() {
		v, err := q.Pop(context.Background())
		require.NoError(t, err)
		popped <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push(99))

	select {
	case v := <-popped:
		require.Equal(t, 99, v)
	case <-time.After(time.Second):
		t.Fatal("Pop never woke up")
	}
	// The item went straight to the waiter; it was never buffered.
	require.Equal(t, 0, q.Size())
}

func TestQueue_Pop_ContextCancelled(t *testing.T) {
	q := NewQueue[int](nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_Shutdown_WakesWaitersWithStopped(t *testing.T) {
	q := NewQueue[int](nil)

	resultCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Shutdown()

	select {
	case err := <-resultCh:
		require.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken on shutdown")
	}
	require.Equal(t, QueueDrained, q.State())
}

func TestQueue_Shutdown_DoesNotConsumeBufferedItems(t *testing.T) {
	q := NewQueue[int](nil)
	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))

	q.Shutdown()
	require.Equal(t, 2, q.Size())

	_, err := q.TryPop()
	require.ErrorIs(t, err, ErrStopped) // state != open, even with items present
}

func TestQueue_Push_AfterDrainedFails(t *testing.T) {
	q := NewQueue[int](nil)
	q.Shutdown()
	require.ErrorIs(t, q.Push(1), ErrStopped)
}

func TestQueue_ShutdownDrain_WaitsForBufferToEmpty(t *testing.T) {
	q := NewQueue[int](nil)
	pool := NewPool(WithPoolSize(2))
	defer pool.Shutdown(context.Background())

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- q.ShutdownDrain(context.Background(), pool)
	}()

	// Consume both items; ShutdownDrain should notice the buffer emptied
	// and finish.
	v1, err := q.Pop(context.Background())
	require.NoError(t, err)
	v2, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2}, []int{v1, v2})

	select {
	case err := <-drainDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ShutdownDrain never completed")
	}
	require.Equal(t, QueueDrained, q.State())
}
