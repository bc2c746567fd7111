// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The aggregation engine snaps the current time to bucket boundaries,
// so tests need full control over "now" to assert exact bucket edges.
// Production code accepts a Clock instead of calling time.Now directly:
// Real() in binaries, Fake() in tests.
package clock

import "time"

// Clock abstracts the time operations used by the dashboard. Production
// code injects Real(); tests inject Fake() and advance it explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a ticker delivering on C at the given
	// interval. Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop to
// release resources.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. No more ticks are sent on C after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stopFunc: ticker.Stop}
}
