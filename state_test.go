package corio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFastState_InitialAwake(t *testing.T) {
	s := newFastState()
	require.Equal(t, StateAwake, s.Load())
	require.True(t, s.CanAcceptWork())
	require.False(t, s.IsRunning())
	require.False(t, s.IsTerminal())
}

func TestFastState_TryTransition(t *testing.T) {
	s := newFastState()
	require.True(t, s.TryTransition(StateAwake, StateRunning))
	require.False(t, s.TryTransition(StateAwake, StateRunning)) // already moved
	require.Equal(t, StateRunning, s.Load())
	require.True(t, s.IsRunning())
}

func TestFastState_TransitionAny(t *testing.T) {
	s := newFastState()
	s.Store(StateSleeping)
	require.True(t, s.TransitionAny([]SchedulerState{StateRunning, StateSleeping}, StateTerminating))
	require.Equal(t, StateTerminating, s.Load())
	require.False(t, s.CanAcceptWork())
}

func TestFastState_IsTerminal(t *testing.T) {
	s := newFastState()
	s.Store(StateTerminated)
	require.True(t, s.IsTerminal())
	require.False(t, s.CanAcceptWork())
}
