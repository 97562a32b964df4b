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

// Scheduling: scan priority levels from CRITICAL to LOW; within a level,
// resume round-robin from the slot after the last-run index. Among N
// continuously READY actors of one level each runs exactly once before any
// repeats, and nothing at a lower level runs while a higher level has a
// READY actor.

func (rt *Runtime) pickNext() *actor {
	n := int32(rt.actors.Cap())
	for lvl := int32(0); lvl < numPriorities; lvl++ {
		start := rt.rr[lvl]
		for i := int32(1); i <= n; i++ {
			slot := (start + i) % n
			a := rt.actors.At(slot)
			if a.id != 0 && a.priority == Priority(lvl) && a.state == stateReady {
				rt.rr[lvl] = slot
				return a
			}
		}
	}
	return nil
}

// runSlice hands control to the selected actor until its next yield point.
// Kill marks are honored here, before the actor would run again.
func (rt *Runtime) runSlice(a *actor) {
	if a.killed {
		rt.destroyActor(a, ReasonKilled)
		return
	}
	a.state = stateRunning
	rt.current = a
	a.fib.resumeSlice()
	rt.current = nil

	if a.done {
		rt.destroyActor(a, a.reason)
		return
	}
	if !guardsIntact(a.backing) {
		rt.logger.Errorf("actor %d %q workspace guard corrupted", a.id, a.name)
		rt.destroyActor(a, ReasonCrashStack)
		return
	}
	// a.state was left READY (yield) or WAITING (blocking call) by the actor
}

// destroyActor tears an actor down exactly once: terminate its goroutine,
// classify the death, cancel its timers, drop its bus subscriptions and I/O
// waits, propagate EXIT to links and monitors, flush the mailbox, and return
// the workspace to the arena.
func (rt *Runtime) destroyActor(a *actor, reason ExitReason) {
	if !a.done {
		a.fib.terminate()
	}
	if reason != ReasonKilled && !guardsIntact(a.backing) {
		reason = ReasonCrashStack
	}
	if a.panicv != nil {
		rt.logger.Errorf("actor %d %q panicked: %v", a.id, a.name, a.panicv)
	}
	a.state = stateDead
	a.reason = reason

	rt.cancelTimersOf(a.id)
	rt.dropBusSubscriptions(a.id)
	for i := 0; i < rt.ioSlots.Cap(); i++ {
		if s := rt.ioSlots.At(int32(i)); s.inUse && s.waiter == a.id {
			s.waiter = 0
		}
	}

	delete(rt.byID, a.id)
	if a.registered {
		delete(rt.names, a.name)
	}

	rt.propagateDeath(a, reason)
	if a.mcount > 0 {
		rt.logger.Debugf("actor %d %q died with %d unread messages", a.id, a.name, a.mcount)
	}
	rt.flushMailbox(a)

	if a.arenaOff >= 0 {
		rt.arena.release(a.arenaOff)
	}
	rt.logger.Debugf("actor %d %q died: %s", a.id, a.name, reason)
	rt.actors.Put(a.slot)
}
