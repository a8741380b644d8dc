package ratelimit

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestReserveFirstCall(t *testing.T) {
	l := New(DefaultWindow, clockwork.NewFakeClock())

	ok, retry := l.Reserve(1)
	assert.True(t, ok)
	assert.Zero(t, retry)
}

func TestThrottleWithinWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(DefaultWindow, clock)

	ok, _ := l.Reserve(1)
	assert.True(t, ok)

	clock.Advance(10 * time.Second)
	ok, retry := l.Reserve(1)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retry)

	clock.Advance(20 * time.Second)
	ok, _ = l.Reserve(1)
	assert.True(t, ok)
}

func TestRetryAfterFloorsElapsedSeconds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(DefaultWindow, clock)
	l.Reserve(1)

	// 10.4s elapsed counts as 10 whole seconds: wait 20, not 19.
	clock.Advance(10*time.Second + 400*time.Millisecond)
	ok, retry := l.Reserve(1)
	assert.False(t, ok)
	assert.Equal(t, 20*time.Second, retry)
}

func TestConcurrentReservesAdmitOnlyOne(t *testing.T) {
	l := New(DefaultWindow, clockwork.NewFakeClock())

	// Two back-to-back checks from one team: the second must see the
	// first's reservation even before any issuance completes.
	ok, _ := l.Reserve(1)
	assert.True(t, ok)
	ok, _ = l.Reserve(1)
	assert.False(t, ok)
}

func TestCancelReopensGate(t *testing.T) {
	l := New(DefaultWindow, clockwork.NewFakeClock())

	ok, _ := l.Reserve(1)
	assert.True(t, ok)

	// Issuance failed: releasing the reservation leaves the window
	// unconsumed.
	l.Cancel(1)
	ok, _ = l.Reserve(1)
	assert.True(t, ok)
}

func TestTeamsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(DefaultWindow, clock)

	l.Reserve(1)
	ok, _ := l.Reserve(2)
	assert.True(t, ok)

	ok, _ = l.Reserve(1)
	assert.False(t, ok)
}

func TestReserveRestartsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := New(DefaultWindow, clock)

	l.Reserve(1)
	clock.Advance(DefaultWindow)
	ok, _ := l.Reserve(1)
	assert.True(t, ok)

	clock.Advance(5 * time.Second)
	ok, retry := l.Reserve(1)
	assert.False(t, ok)
	assert.Equal(t, 25*time.Second, retry)
}
