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
	"fmt"
	"time"

	"github.com/hivekit/hive/errors"
)

// timerEntry is one slot of the fixed timer pool. Expiries are absolute on
// the runtime's timeline, which makes the wall-clock and simulated modes
// share all the bookkeeping.
type timerEntry struct {
	id       Tag
	owner    ActorID
	periodic bool
	expiry   time.Time
	interval time.Duration
	inUse    bool
}

func (rt *Runtime) startTimer(a *actor, delay, interval time.Duration, periodic bool) (Tag, error) {
	if delay < 0 || (periodic && interval <= 0) {
		return 0, fmt.Errorf("start timer: %w", errors.ErrInvalidArgument)
	}
	var slot *timerEntry
	for i := range rt.timers {
		if !rt.timers[i].inUse {
			slot = &rt.timers[i]
			break
		}
	}
	if slot == nil {
		return 0, fmt.Errorf("start timer: %w", errors.ErrNoMemory)
	}
	slot.id = rt.newRuntimeTag()
	slot.owner = a.id
	slot.periodic = periodic
	slot.expiry = rt.clk.Now().Add(delay)
	slot.interval = interval
	slot.inUse = true
	rt.numTimers++
	return slot.id, nil
}

// cancelTimer removes a pending timer. A timer that already fired (one-shot)
// no longer exists and reports ErrNotFound.
func (rt *Runtime) cancelTimer(owner ActorID, id Tag) error {
	for i := range rt.timers {
		t := &rt.timers[i]
		if t.inUse && t.id == id && t.owner == owner {
			t.inUse = false
			rt.numTimers--
			return nil
		}
	}
	return fmt.Errorf("cancel timer %d: %w", id, errors.ErrNotFound)
}

// cancelTimersOf invalidates every timer owned by a dying actor.
func (rt *Runtime) cancelTimersOf(owner ActorID) {
	for i := range rt.timers {
		if rt.timers[i].inUse && rt.timers[i].owner == owner {
			rt.timers[i].inUse = false
			rt.numTimers--
		}
	}
}

// stopDeadlineTimer cancels an internal timeout timer and swallows its
// message if it already fired, so a completed blocking call leaves no trace.
func (rt *Runtime) stopDeadlineTimer(a *actor, ttag Tag) {
	if ttag == 0 {
		return
	}
	_ = rt.cancelTimer(a.id, ttag)
	if idx, ok := rt.scanMailbox(a, Filter{Sender: AnySender, Class: ClassTimer, Tag: ttag}); ok {
		rt.discardEntry(a, idx)
	}
}

// nextDeadline returns the earliest pending expiry.
func (rt *Runtime) nextDeadline() (time.Time, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for i := range rt.timers {
		t := &rt.timers[i]
		if t.inUse && (!found || t.expiry.Before(earliest)) {
			earliest = t.expiry
			found = true
		}
	}
	return earliest, found
}

// fireDueTimers delivers every timer due on the current timeline, earliest
// first. A periodic timer that fell multiple intervals behind catches up.
func (rt *Runtime) fireDueTimers() {
	rt.fireUpTo(rt.clk.Now())
}

func (rt *Runtime) fireUpTo(now time.Time) {
	for {
		var due *timerEntry
		for i := range rt.timers {
			t := &rt.timers[i]
			if t.inUse && !t.expiry.After(now) && (due == nil || t.expiry.Before(due.expiry)) {
				due = t
			}
		}
		if due == nil {
			return
		}
		rt.fireTimer(due)
	}
}

func (rt *Runtime) fireTimer(t *timerEntry) {
	if err := rt.sendMessage(0, t.owner, ClassTimer, t.id, nil); err != nil {
		rt.logger.Errorf("timer %d delivery to actor %d failed: %v", t.id, t.owner, err)
	}
	if t.periodic {
		t.expiry = t.expiry.Add(t.interval)
		return
	}
	t.inUse = false
	rt.numTimers--
}

// AdvanceTime advances the simulated clock by d and fires every timer that
// becomes due, in expiry order, before returning. The first call converts the
// runtime to the simulated timeline: the clock freezes at the current wall
// time, so existing real-time deadlines carry over unchanged. Must run on the
// scheduler thread (from an actor, or between Steps).
func (rt *Runtime) AdvanceTime(d time.Duration) error {
	if rt.closed.Load() {
		return fmt.Errorf("advance time: %w", errors.ErrClosed)
	}
	if d < 0 {
		return fmt.Errorf("advance time: %w", errors.ErrInvalidArgument)
	}
	if !rt.simulated {
		rt.clk = &simClock{now: time.Now()}
		rt.simulated = true
	}
	sc := rt.clk.(*simClock)
	target := sc.now.Add(d)
	for {
		var due *timerEntry
		for i := range rt.timers {
			t := &rt.timers[i]
			if t.inUse && !t.expiry.After(target) && (due == nil || t.expiry.Before(due.expiry)) {
				due = t
			}
		}
		if due == nil {
			break
		}
		if due.expiry.After(sc.now) {
			sc.now = due.expiry
		}
		rt.fireTimer(due)
	}
	sc.now = target
	return nil
}
