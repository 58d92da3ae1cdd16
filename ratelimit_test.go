package corio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorLogLimiter_AllowsWithinRate(t *testing.T) {
	l := newErrorLogLimiter()
	require.True(t, l.allow("EAGAIN"))
}

func TestErrorLogLimiter_NilReceiverAllowsEverything(t *testing.T) {
	var l *errorLogLimiter
	require.True(t, l.allow("anything"))
}

func TestErrorLogLimiter_ThrottlesBurst(t *testing.T) {
	l := newErrorLogLimiter()
	allowed := 0
	for i := 0; i < 20; i++ {
		if l.allow("ECONNRESET") {
			allowed++
		}
	}
	require.Less(t, allowed, 20, "limiter should have throttled at least one of 20 rapid calls")
}
