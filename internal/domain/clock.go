package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; freshness tests inject a fake for
// deterministic ages.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for freshness checks. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
