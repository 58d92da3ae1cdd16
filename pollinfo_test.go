package corio

import (
	"container/heap"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollInfo_TryComplete_OnlyFirstWins(t *testing.T) {
	pi := newPollInfo(3, OpRead, 0, false, func(PollStatus) {})

	require.True(t, pi.tryComplete(StatusEvent))
	require.False(t, pi.tryComplete(StatusTimeout))
	require.Equal(t, StatusEvent, pi.currentStatus())
}

func TestPollInfo_TryComplete_ConcurrentRacesHaveExactlyOneWinner(t *testing.T) {
	pi := newPollInfo(3, OpRead, 0, false, func(PollStatus) {})

	const n = 64
	var wg sync.WaitGroup
	wins := make(chan PollStatus, n)
	for i := 0; i < n; i++ {
		status := StatusEvent
		if i%2 == 0 {
			status = StatusTimeout
		}
		wg.Add(1)
		go func(s PollStatus) {
			defer wg.Done()
			if pi.tryComplete(s) {
				wins <- s
			}
		}(status)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	require.Equal(t, 1, count)
}

func TestTimerHeap_OrdersByDeadline(t *testing.T) {
	h := &timerHeap{}
	heap.Init(h)

	deadlines := []int64{50, 10, 30, 20, 40}
	for _, d := range deadlines {
		heap.Push(h, newPollInfo(0, OpRead, d, false, func(PollStatus) {}))
	}

	var got []int64
	for h.Len() > 0 {
		got = append(got, heap.Pop(h).(*PollInfo).deadline)
	}
	require.Equal(t, []int64{10, 20, 30, 40, 50}, got)
}

func TestTimerHeap_RemoveByStoredIndex(t *testing.T) {
	h := &timerHeap{}
	heap.Init(h)

	target := newPollInfo(0, OpRead, 25, false, func(PollStatus) {})
	heap.Push(h, newPollInfo(0, OpRead, 10, false, func(PollStatus) {}))
	heap.Push(h, target)
	heap.Push(h, newPollInfo(0, OpRead, 40, false, func(PollStatus) {}))

	heap.Remove(h, target.timerIdx)

	var got []int64
	for h.Len() > 0 {
		got = append(got, heap.Pop(h).(*PollInfo).deadline)
	}
	require.Equal(t, []int64{10, 40}, got)
}
