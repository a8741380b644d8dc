// Package ratelimit gates task issuance to one request per team per
// window. The last-allowed map is process-local and in memory: it resets
// on restart and is not shared between replicas, so a multi-instance
// deployment under-enforces the limit. That is a documented limitation of
// the current deployment shape, not something to silently fix here.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultWindow is the canonical per-team cooldown.
const DefaultWindow = 30 * time.Second

// Limiter is a per-team cooldown gate in front of task issuance.
// It must wrap issuance only; reads of a team's own history are never
// throttled.
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	lastCall map[int64]time.Time
	clock    clockwork.Clock
}

// New creates a Limiter. In production pass clockwork.NewRealClock();
// tests inject a FakeClock.
func New(window time.Duration, clock clockwork.Clock) *Limiter {
	return &Limiter{
		window:   window,
		lastCall: make(map[int64]time.Time),
		clock:    clock,
	}
}

// Reserve checks the gate and, when open, restarts the team's window in
// the same lock acquisition, so two concurrent requests from one team
// cannot both pass. When throttled, retryAfter is the remaining wait,
// floor-rounded to whole seconds (window minus whole elapsed seconds).
//
// A reservation stands for a successful issuance. Callers whose issuance
// fails release it with Cancel, so a failed request does not consume the
// window.
func (l *Limiter) Reserve(teamID int64) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if last, seen := l.lastCall[teamID]; seen {
		elapsed := now.Sub(last)
		if elapsed < l.window {
			return false, l.window - elapsed.Truncate(time.Second)
		}
	}
	l.lastCall[teamID] = now
	return true, 0
}

// Cancel releases a reservation after a failed issuance, reopening the
// gate. The displaced timestamp was already outside the window, so
// dropping the entry restores the pre-reservation state.
func (l *Limiter) Cancel(teamID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lastCall, teamID)
}
