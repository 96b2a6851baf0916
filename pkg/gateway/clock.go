// Copyright 2025 Certen Protocol

package gateway

import "time"

// Clock is the host-provided time source. The rotation cooldown and the ITS
// flow epoch are the only time-dependent behaviors in the module.
type Clock interface {
	// UnixTimestamp returns the current unix time in seconds.
	UnixTimestamp() int64
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// UnixTimestamp implements Clock.
func (SystemClock) UnixTimestamp() int64 {
	return time.Now().Unix()
}

// FixedClock is a Clock pinned to a settable instant. Used by tests.
type FixedClock struct {
	Timestamp int64
}

// UnixTimestamp implements Clock.
func (c *FixedClock) UnixTimestamp() int64 {
	return c.Timestamp
}

// Advance moves the clock forward by secs.
func (c *FixedClock) Advance(secs int64) {
	c.Timestamp += secs
}
