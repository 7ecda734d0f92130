package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests and fixture generators inject a
// fake for reproducible payload timestamps.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for payload generation timestamps.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Timestamp returns the current time from the injected clock.
func Timestamp() time.Time { return clock.Now() }
