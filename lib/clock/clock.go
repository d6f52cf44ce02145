// Copyright 2026 The Carillon Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock supplies the current time and one-shot scheduled callbacks.
// Every engine function that would call time.Now or time.AfterFunc
// takes its Clock from the Manager instead of the time package.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (Real) or synchronously during Advance (Fake).
	// The returned Timer can cancel the pending call with Stop.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a scheduled callback created by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. Returns true if the call stops
// the timer, false if the timer has already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
