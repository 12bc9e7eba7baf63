package ratelimit

import (
	"fmt"
	"time"
)

// Window granularities tracked per service.
const (
	windowMinute = time.Minute
	windowHour   = time.Hour
	windowDay    = 24 * time.Hour
)

// Limits are the per-window call ceilings for one service.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// Remaining reports the unused budget per window and when the minute
// window rolls over.
type Remaining struct {
	Minute    int       `json:"minute"`
	Hour      int       `json:"hour"`
	Day       int       `json:"day"`
	NextReset time.Time `json:"nextReset"`
}

// Limiter tracks outbound calls to external services over fixed
// minute/hour/day windows. CanCall and RecordCall are intentionally not
// atomic with respect to each other: concurrent requests racing between the
// check and the record can overshoot a ceiling by a small margin, which is
// acceptable for a courtesy budget against a third-party API.
type Limiter struct {
	store  CounterStore
	limits map[string]Limits
	now    func() time.Time
}

func NewLimiter(store CounterStore, limits map[string]Limits) *Limiter {
	return &Limiter{store: store, limits: limits, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func windowKey(service string, now time.Time, window time.Duration) (string, time.Time) {
	idx := now.UnixMilli() / window.Milliseconds()
	resetAt := time.UnixMilli((idx + 1) * window.Milliseconds())
	return fmt.Sprintf("%s_%d_%d", service, window.Milliseconds(), idx), resetAt
}

// CanCall reports whether the budget for service allows one more call.
// It is a pure check and mutates nothing.
func (l *Limiter) CanCall(service string) bool {
	lim, ok := l.limits[service]
	if !ok {
		return true
	}
	now := l.now()
	for _, w := range []struct {
		window  time.Duration
		ceiling int
	}{
		{windowMinute, lim.PerMinute},
		{windowHour, lim.PerHour},
		{windowDay, lim.PerDay},
	} {
		key, _ := windowKey(service, now, w.window)
		if w.ceiling > 0 && l.store.Get(key) >= w.ceiling {
			return false
		}
	}
	return true
}

// RecordCall counts one call against every window for service and sweeps
// expired counters opportunistically.
func (l *Limiter) RecordCall(service string) {
	now := l.now()
	for _, window := range []time.Duration{windowMinute, windowHour, windowDay} {
		key, resetAt := windowKey(service, now, window)
		l.store.Increment(key, resetAt)
	}
	l.store.Sweep(now)
}

// RemainingCalls returns the unused budget for service in each window.
func (l *Limiter) RemainingCalls(service string) Remaining {
	lim := l.limits[service]
	now := l.now()

	minuteKey, minuteReset := windowKey(service, now, windowMinute)
	hourKey, _ := windowKey(service, now, windowHour)
	dayKey, _ := windowKey(service, now, windowDay)

	return Remaining{
		Minute:    max(0, lim.PerMinute-l.store.Get(minuteKey)),
		Hour:      max(0, lim.PerHour-l.store.Get(hourKey)),
		Day:       max(0, lim.PerDay-l.store.Get(dayKey)),
		NextReset: minuteReset,
	}
}
