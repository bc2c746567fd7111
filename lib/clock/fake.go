// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a deterministic Clock frozen at start. Time moves only
// when Advance or Set is called. Safe for concurrent use.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// FakeClock is a manually driven Clock for tests.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the fake time to t. Tickers whose deadline passes fire
// once; intermediate ticks are collapsed, matching a slow consumer of
// a real ticker.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	for _, ticker := range c.tickers {
		ticker.fireUpTo(t)
	}
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// NewTicker returns a ticker that fires when Advance or Set crosses
// its deadlines.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	ticker := &fakeTicker{
		ch:       channel,
		interval: d,
		next:     c.now.Add(d),
	}
	c.tickers = append(c.tickers, ticker)
	return &Ticker{C: channel, stopFunc: ticker.stop}
}

type fakeTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

func (t *fakeTicker) fireUpTo(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	fired := false
	for !t.next.After(now) {
		if !fired {
			select {
			case t.ch <- t.next:
			default:
			}
			fired = true
		}
		t.next = t.next.Add(t.interval)
	}
}

func (t *fakeTicker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}
