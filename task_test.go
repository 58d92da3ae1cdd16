package corio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawn_Success(t *testing.T) {
	ctx := context.Background()
	task := Spawn(ctx, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := task.Await()
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, task.Ready())
}

func TestSpawn_Error(t *testing.T) {
	wantErr := errors.New("boom")
	task := Spawn(context.Background(), func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	_, err := task.Await()
	require.ErrorIs(t, err, wantErr)
}

func TestSpawn_PanicIsCaughtAndTagged(t *testing.T) {
	task := Spawn(context.Background(), func(ctx context.Context) (int, error) {
		panic("kaboom")
	})

	_, err := task.Await()
	require.Error(t, err)
	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, task.ID(), id)
}

func TestTask_Suspend_ResumesExactlyOnceAfterCompletion(t *testing.T) {
	task := Spawn(context.Background(), func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 1, nil
	})

	calls := make(chan bool, 4)
	for i := 0; i < 3; i++ {
		task.Suspend(func() { calls <- task.Ready() })
	}

	_, err := task.Await()
	require.NoError(t, err)

	// Suspend chains every continuation onto the task's single slot, so each
	// of the three runs exactly once, after the task has completed.
	for i := 0; i < 3; i++ {
		select {
		case ready := <-calls:
			require.True(t, ready)
		case <-time.After(time.Second):
			t.Fatal("continuation did not fire")
		}
	}
	require.Empty(t, calls)
}

func TestTask_Suspend_AlreadyDoneRunsInline(t *testing.T) {
	task := Spawn(context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	_, _ = task.Await()

	ran := false
	task.Suspend(func() { ran = true })
	require.True(t, ran)
}

func TestSyncWait_ContextCancelledBeforeCompletion(t *testing.T) {
	gate := make(chan struct{})
	task := Spawn(context.Background(), func(ctx context.Context) (int, error) {
		<-gate
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := SyncWait(ctx, task)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(gate)
}

func TestWhenAll_JoinsInInputOrder(t *testing.T) {
	tasks := make([]*Task[int], 5)
	for i := range tasks {
		i := i
		tasks[i] = Spawn(context.Background(), func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(5-i) * time.Millisecond)
			return i, nil
		})
	}

	joined := WhenAll(context.Background(), tasks...)
	results, err := joined.Await()
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, i, r.Value)
	}
}

func TestWhenAll_PropagatesPerTaskError(t *testing.T) {
	wantErr := errors.New("task 1 failed")
	tasks := []*Task[int]{
		Spawn(context.Background(), func(ctx context.Context) (int, error) { return 0, nil }),
		Spawn(context.Background(), func(ctx context.Context) (int, error) { return 0, wantErr }),
	}

	joined := WhenAll(context.Background(), tasks...)
	results, _ := joined.Await()
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, wantErr)
}
