package corio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("ECONNRESET")
	err := &PollError{Status: StatusError, Cause: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "error")
}

func TestPollError_NoCause(t *testing.T) {
	err := &PollError{Status: StatusTimeout}
	require.Contains(t, err.Error(), "timeout")
}

func TestTaskError_ExtractTaskID(t *testing.T) {
	err := newTaskError(errors.New("oops"), 7)
	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, uint64(7), id)
}

func TestTaskError_NilErrYieldsNilError(t *testing.T) {
	require.Nil(t, newTaskError(nil, 1))
}

func TestExtractTaskID_NonTaskErrorReturnsFalse(t *testing.T) {
	_, ok := ExtractTaskID(errors.New("plain"))
	require.False(t, ok)
}
