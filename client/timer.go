// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"sync"
	"time"
)

// DelayedAction is a flag that stays raised for a fixed duration after the
// last Trigger. Cancel lowers it immediately.
type DelayedAction struct {
	mu       sync.Mutex
	delay    time.Duration
	onExpire func()
	timer    *time.Timer
	gen      uint64
	active   bool
}

// NewDelayedAction returns an idle action. onExpire, if non-nil, runs after
// the flag drops on its own; it does not run on Cancel.
func NewDelayedAction(delay time.Duration, onExpire func()) *DelayedAction {
	return &DelayedAction{delay: delay, onExpire: onExpire}
}

// Trigger raises the flag and restarts the countdown.
func (a *DelayedAction) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.active = true
	a.timer = time.AfterFunc(a.delay, func() { a.expire(gen) })
}

func (a *DelayedAction) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.active = false
}

func (a *DelayedAction) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *DelayedAction) expire(gen uint64) {
	a.mu.Lock()
	// A Trigger or Cancel after this timer was armed owns the flag now.
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.active = false
	a.timer = nil
	fn := a.onExpire
	a.mu.Unlock()

	if fn != nil {
		fn()
	}
}
