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

// Context is the handle an actor entry function receives. Every blocking
// operation on it is a yield point; the actor must only use its own Context,
// and only while it is the running actor.
type Context struct {
	rt   *Runtime
	self *actor
}

// ID returns the actor's id.
func (c *Context) ID() ActorID {
	return c.self.id
}

// Name returns the actor's debug/registry name.
func (c *Context) Name() string {
	return c.self.name
}

// Args returns the opaque arguments passed at spawn.
func (c *Context) Args() any {
	return c.self.args
}

// Siblings returns the actors spawned in the same group, for discovery by
// name. Nil outside group spawns.
func (c *Context) Siblings() []Sibling {
	return c.self.siblings
}

// Workspace returns the actor's exclusively owned scratch region, carved out
// of the stack arena and bracketed by guard words. Writing past either end is
// detected at the next schedule boundary and kills the actor with
// ReasonCrashStack.
func (c *Context) Workspace() []byte {
	return c.self.workspace
}

// Logger returns the runtime logger.
func (c *Context) Logger() log.Logger {
	return c.rt.logger
}

// Runtime returns the owning runtime.
func (c *Context) Runtime() *Runtime {
	return c.rt
}

// Now returns the current time on the runtime's timeline.
func (c *Context) Now() time.Time {
	return c.rt.clk.Now()
}

// Yield hands control back to the scheduler, leaving the actor READY. It
// returns when the scheduler selects the actor again.
func (c *Context) Yield() {
	c.self.state = stateReady
	c.self.fib.yieldToScheduler()
}

// Exit terminates the actor with reason NORMAL. It never returns.
func (c *Context) Exit() {
	panic(exitPanic{})
}

// Spawn creates a new actor from inside a running one.
func (c *Context) Spawn(entry Entry, args any, cfg SpawnConfig) (ActorID, error) {
	return c.rt.Spawn(entry, args, cfg)
}

// Kill marks another actor for destruction with reason KILLED at the next
// scheduling decision that selects it. Killing self fails.
func (c *Context) Kill(target ActorID) error {
	return c.rt.Kill(target)
}

// Whereis resolves a registered actor name.
func (c *Context) Whereis(name string) (ActorID, error) {
	return c.rt.Whereis(name)
}

// Notify sends an asynchronous NOTIFY message. It returns immediately;
// mailbox pool exhaustion is reported as ErrNoMemory, never queued.
func (c *Context) Notify(to ActorID, payload []byte) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.sendMessage(c.self.id, to, ClassNotify, 0, payload)
}

// NotifyEx sends a message with an explicit class and tag. The runtime uses
// it internally for timer and exit traffic; applications may use it for
// custom tagging.
func (c *Context) NotifyEx(to ActorID, class MessageClass, tag Tag, payload []byte) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.sendMessage(c.self.id, to, class, tag, payload)
}

// Recv returns the next mailbox message. Timeout semantics: 0 returns
// ErrWouldBlock when the mailbox has no message, positive bounds the wait,
// negative waits indefinitely.
func (c *Context) Recv(timeout time.Duration) (*Message, error) {
	return c.RecvMatch(MatchAny(), timeout)
}

// RecvMatch returns the earliest-enqueued message satisfying the filter,
// unlinking it from wherever it sits in the mailbox; non-matching messages
// keep their order for later receives.
func (c *Context) RecvMatch(f Filter, timeout time.Duration) (*Message, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return nil, err
	}
	return c.rt.recvMatch(c.self, f, timeout)
}

// Request sends a REQUEST and blocks for its correlated REPLY.
func (c *Context) Request(to ActorID, payload []byte, timeout time.Duration) (*Message, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return nil, err
	}
	return c.rt.request(c.self, to, payload, timeout)
}

// Reply answers a received REQUEST.
func (c *Context) Reply(req *Message, payload []byte) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.reply(c.self, req, payload)
}

// CreateBus creates a pub/sub channel.
func (c *Context) CreateBus(cfg BusConfig) (BusID, error) {
	return c.rt.CreateBus(cfg)
}

// DestroyBus releases a bus without subscribers.
func (c *Context) DestroyBus(id BusID) error {
	return c.rt.DestroyBus(id)
}

// Subscribe attaches the calling actor to a bus. A subscriber only observes
// entries published after it joined.
func (c *Context) Subscribe(id BusID) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.subscribe(c.self, id)
}

// Unsubscribe detaches the calling actor from a bus.
func (c *Context) Unsubscribe(id BusID) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.unsubscribe(c.self, id)
}

// Publish appends an entry to a bus, evicting the oldest entry when full,
// and wakes every subscriber blocked on the bus.
func (c *Context) Publish(id BusID, payload []byte) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.publish(c.self, id, payload)
}

// Read returns the oldest bus entry this actor has not read, without
// blocking; ErrWouldBlock when none.
func (c *Context) Read(id BusID) ([]byte, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return nil, err
	}
	return c.rt.busRead(c.self, id)
}

// ReadWait reads from a bus, blocking with recv-style timeout semantics when
// nothing is unread.
func (c *Context) ReadWait(id BusID, timeout time.Duration) ([]byte, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return nil, err
	}
	return c.rt.busReadWait(c.self, id, timeout)
}

// After starts a one-shot timer delivered as a TIMER-class message tagged
// with the returned id. The timer frees itself after firing.
func (c *Context) After(delay time.Duration) (Tag, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return 0, err
	}
	return c.rt.startTimer(c.self, delay, 0, false)
}

// Every starts a periodic timer firing each interval until cancelled or the
// actor dies.
func (c *Context) Every(interval time.Duration) (Tag, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return 0, err
	}
	return c.rt.startTimer(c.self, interval, interval, true)
}

// CancelTimer cancels a pending timer. Once cancelled no message is ever
// delivered for it; cancelling an already-fired one-shot reports
// ErrNotFound.
func (c *Context) CancelTimer(id Tag) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.cancelTimer(c.self.id, id)
}

// Sleep blocks the actor for the given delay using a one-shot timer and a
// selective receive on that timer's tag only; other mailbox content is left
// untouched.
func (c *Context) Sleep(delay time.Duration) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	id, err := c.rt.startTimer(c.self, delay, 0, false)
	if err != nil {
		return err
	}
	_, err = c.rt.recvMatch(c.self, Filter{Sender: AnySender, Class: ClassTimer, Tag: id}, -1)
	return err
}

// Select waits across bus and IPC sources with deterministic priority: bus
// sources scan first in array order, then IPC sources. A spurious wake
// returns ErrWouldBlock; callers loop when they need a definite event.
func (c *Context) Select(sources []SelectSource, timeout time.Duration) (*SelectResult, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return nil, err
	}
	return c.rt.selectWait(c.self, sources, timeout)
}

// Link creates a bidirectional death notification with the target.
func (c *Context) Link(target ActorID) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.link(c.self, target)
}

// Unlink removes both sides of a link.
func (c *Context) Unlink(target ActorID) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.unlink(c.self, target)
}

// Monitor creates a one-way death notification and returns its reference
// tag; the EXIT message for the target's death carries that tag.
func (c *Context) Monitor(target ActorID) (Tag, error) {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return 0, err
	}
	return c.rt.monitor(c.self, target)
}

// Demonitor cancels a monitor by reference.
func (c *Context) Demonitor(ref Tag) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.demonitor(c.self, ref)
}

// AdvanceTime advances the simulated clock, firing due timers synchronously.
func (c *Context) AdvanceTime(d time.Duration) error {
	if err := c.rt.checkCurrent(c.self); err != nil {
		return err
	}
	return c.rt.AdvanceTime(d)
}
