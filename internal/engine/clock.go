package engine

import "time"

// Clock supplies the current time for every timing gate (market creation,
// betting cutoff, resolution). The engine holds no internal clock so tests
// and replay tooling can drive the gates deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
