package mind

import "golang.org/x/time/rate"

// CallLimiter caps generation calls across all guilds so a burst of
// admissions cannot flood the backend.
type CallLimiter struct {
	limiter *rate.Limiter
}

// DefaultCallLimiter allows 30 calls per minute with a burst of 5.
func DefaultCallLimiter() *CallLimiter {
	return &CallLimiter{limiter: rate.NewLimiter(rate.Limit(0.5), 5)}
}

func NewCallLimiter(perSecond float64, burst int) *CallLimiter {
	return &CallLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow reports whether a call may proceed right now. It never blocks;
// a denied event is dropped, not queued.
func (l *CallLimiter) Allow() bool {
	return l.limiter.Allow()
}
