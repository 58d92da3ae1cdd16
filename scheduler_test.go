package corio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(WithWorkerCount(2))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func TestScheduler_Poll_TimeoutFiresWithinBounds(t *testing.T) {
	s := newTestScheduler(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	start := time.Now()
	status, err := s.Poll(context.Background(), int(r.Fd()), OpRead, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Equal(t, StatusTimeout, status)
	require.Error(t, err)
	var pollErr *PollError
	require.ErrorAs(t, err, &pollErr)
	require.Equal(t, StatusTimeout, pollErr.Status)
	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Less(t, elapsed, 500*time.Millisecond)
}

func TestScheduler_Poll_EventFiresOnWrite(t *testing.T) {
	s := newTestScheduler(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	resultCh := make(chan struct {
		status PollStatus
		err    error
	}, 1)
	go func() {
		status, err := s.Poll(context.Background(), int(r.Fd()), OpRead, 0)
		resultCh <- struct {
			status PollStatus
			err    error
		}{status, err}
	}()

	time.Sleep(20 * time.Millisecond)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case r := <-resultCh:
		require.NoError(t, r.err)
		require.Equal(t, StatusEvent, r.status)
	case <-time.After(time.Second):
		t.Fatal("Poll never observed readability")
	}
}

func TestScheduler_Poll_ContextCancelled(t *testing.T) {
	s := newTestScheduler(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = s.Poll(ctx, int(r.Fd()), OpRead, 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_ScheduleAfter(t *testing.T) {
	s := newTestScheduler(t)

	start := time.Now()
	_, err := s.ScheduleAfter(context.Background(), 30*time.Millisecond).Await()
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestScheduler_WatchSignal_DeliversWakeup(t *testing.T) {
	s := newTestScheduler(t)

	var sig Signal
	delivered := make(chan any, 1)
	cancel := s.WatchSignal(&sig, "woke")
	defer cancel()

	// dispatchSignals only runs on a drain cycle; a bare Set() with no
	// concurrent notifier activity may need a nudge via wake() to be
	// observed promptly, same as Poll's watch does.
	sig.Set()
	s.wake()

	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("signal watcher never observed delivery")
		default:
		}
		if !sig.IsSet() {
			delivered <- struct{}{}
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	<-delivered
}
