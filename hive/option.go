/*
 * MIT License
 *
 * Copyright (c) 2025-2026  Hive Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package hive

import (
	"time"

	"github.com/hivekit/hive/log"
)

// config holds the sizing of every fixed pool. All values are settled at
// construction; nothing grows afterwards.
type config struct {
	logger         log.Logger
	maxActors      int
	arenaSize      int
	defaultStack   int
	mailboxCap     int
	maxPayload     int
	maxBuses       int
	maxTimers      int
	maxLinks       int
	maxMonitors    int
	maxIOSources   int
	pollInterval   time.Duration
	manualEvents   bool
	simulatedClock bool
}

func defaultConfig() config {
	return config{
		logger:       log.DiscardLogger,
		maxActors:    64,
		arenaSize:    128 << 10,
		defaultStack: 1 << 10,
		mailboxCap:   256,
		maxPayload:   256,
		maxBuses:     16,
		maxTimers:    64,
		maxLinks:     128,
		maxMonitors:  64,
		maxIOSources: 16,
		pollInterval: 10 * time.Millisecond,
	}
}

// Option configures a Runtime at construction time.
type Option func(*config)

// WithLogger sets the runtime logger.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxActors bounds the actor table.
func WithMaxActors(n int) Option {
	return func(c *config) {
		c.maxActors = n
	}
}

// WithArenaSize sets the stack arena size in bytes.
func WithArenaSize(n int) Option {
	return func(c *config) {
		c.arenaSize = n
	}
}

// WithDefaultStackSize sets the workspace size used when a SpawnConfig leaves
// StackSize at zero.
func WithDefaultStackSize(n int) Option {
	return func(c *config) {
		c.defaultStack = n
	}
}

// WithMailboxCapacity bounds the runtime-wide mailbox entry pool.
func WithMailboxCapacity(n int) Option {
	return func(c *config) {
		c.mailboxCap = n
	}
}

// WithMaxPayloadSize bounds the payload of a single message.
func WithMaxPayloadSize(n int) Option {
	return func(c *config) {
		c.maxPayload = n
	}
}

// WithMaxBuses bounds the bus table.
func WithMaxBuses(n int) Option {
	return func(c *config) {
		c.maxBuses = n
	}
}

// WithMaxTimers bounds the timer pool. Internal timeout timers draw from the
// same pool.
func WithMaxTimers(n int) Option {
	return func(c *config) {
		c.maxTimers = n
	}
}

// WithMaxLinks bounds the link pool. Each link consumes two entries, one per
// side.
func WithMaxLinks(n int) Option {
	return func(c *config) {
		c.maxLinks = n
	}
}

// WithMaxMonitors bounds the monitor pool.
func WithMaxMonitors(n int) Option {
	return func(c *config) {
		c.maxMonitors = n
	}
}

// WithMaxIOSources bounds the pluggable I/O source table.
func WithMaxIOSources(n int) Option {
	return func(c *config) {
		c.maxIOSources = n
	}
}

// WithPollInterval bounds how long the idle scheduler blocks on its event
// source before re-checking for cancellation and timers.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithManualEventSource selects the step-driven event source backend instead
// of the realtime one. Intended for deterministic, test-driven operation,
// usually together with WithSimulatedClock.
func WithManualEventSource() Option {
	return func(c *config) {
		c.manualEvents = true
	}
}

// WithSimulatedClock starts the runtime on the simulated timeline; timers
// only fire through AdvanceTime.
func WithSimulatedClock() Option {
	return func(c *config) {
		c.simulatedClock = true
	}
}
