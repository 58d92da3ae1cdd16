package corio

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// errorLogLimiter throttles repeated notifier-error log lines (e.g. a
// socket spinning on the same errno) so a misbehaving descriptor cannot
// flood the configured Logger. A category is whatever key the caller
// passes, matching catrate's "arbitrary category" rate limiting model; the
// Scheduler's run loop uses one fixed category for all notifier poll
// errors.
type errorLogLimiter struct {
	limiter *catrate.Limiter
}

// newErrorLogLimiter builds a limiter allowing at most 5 log lines per
// second and 50 per minute, per error category — enough to see a problem
// without the notifier's error path dominating log volume.
func newErrorLogLimiter() *errorLogLimiter {
	return &errorLogLimiter{
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 50,
		}),
	}
}

// allow reports whether a log line for category should be emitted now.
func (l *errorLogLimiter) allow(category any) bool {
	if l == nil || l.limiter == nil {
		return true
	}
	_, ok := l.limiter.Allow(category)
	return ok
}
