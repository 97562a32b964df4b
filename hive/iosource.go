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

	"github.com/google/uuid"

	"github.com/hivekit/hive/errors"
)

// ioSlot is one entry of the fixed I/O source table.
type ioSlot struct {
	id     string
	name   string
	inUse  bool
	waiter ActorID
	ready  bool
	data   []byte
	err    error
}

// IOSource is the hook for pluggable file/network subsystems. A collaborator
// registers a source, performs its operation on its own goroutines, and calls
// Complete; the result travels through the event source, is stored on the
// scheduler thread, and the awaiting actor is flipped back to READY. The
// scheduler never learns the I/O type.
type IOSource struct {
	rt   *Runtime
	slot int32
	id   string
}

// NewIOSource registers a completion source in the fixed I/O table. It must
// be called on the scheduler thread (from an actor, or before Run).
func (rt *Runtime) NewIOSource(name string) (*IOSource, error) {
	if rt.closed.Load() {
		return nil, fmt.Errorf("new io source: %w", errors.ErrClosed)
	}
	slot, s, ok := rt.ioSlots.Get()
	if !ok {
		return nil, fmt.Errorf("new io source %q: %w", name, errors.ErrNoMemory)
	}
	s.id = uuid.NewString()
	s.name = name
	s.inUse = true
	return &IOSource{rt: rt, slot: slot, id: s.id}, nil
}

// ID returns the unique id of the source, useful for log correlation.
func (s *IOSource) ID() string {
	return s.id
}

// Complete delivers the outcome of the external operation. Safe to call from
// any goroutine. It fails with ErrNoMemory when the event queue is full and
// ErrClosed after runtime shutdown; the collaborator decides whether to
// retry.
func (s *IOSource) Complete(data []byte, err error) error {
	return s.rt.evsrc.post(completion{slot: s.slot, data: data, err: err})
}

// Close releases the source's table slot. Like NewIOSource it must run on the
// scheduler thread.
func (s *IOSource) Close() error {
	slot := s.rt.ioSlots.At(s.slot)
	if !slot.inUse || slot.id != s.id {
		return fmt.Errorf("close io source: %w", errors.ErrNotFound)
	}
	s.rt.ioSlots.Put(s.slot)
	return nil
}

// applyCompletion stores an external result against its source and wakes the
// awaiting actor. Runs on the scheduler thread only.
func (rt *Runtime) applyCompletion(c completion) {
	if c.slot < 0 || int(c.slot) >= rt.ioSlots.Cap() {
		return
	}
	slot := rt.ioSlots.At(c.slot)
	if !slot.inUse {
		rt.logger.Warnf("completion for released io source slot %d dropped", c.slot)
		return
	}
	slot.data = c.data
	slot.err = c.err
	slot.ready = true
	if slot.waiter == 0 {
		return
	}
	if a, ok := rt.byID[slot.waiter]; ok && a.state == stateWaiting && a.wait.active && a.wait.ioSlot == c.slot {
		a.state = stateReady
	}
}

// AwaitIO blocks the calling actor until the source completes or the timeout
// expires. Timeout semantics are uniform with Recv: 0 returns ErrWouldBlock
// when no result is pending, positive bounds the wait, negative waits
// indefinitely.
func (c *Context) AwaitIO(src *IOSource, timeout time.Duration) ([]byte, error) {
	rt, a := c.rt, c.self
	if err := rt.checkCurrent(a); err != nil {
		return nil, err
	}
	if src == nil || src.rt != rt {
		return nil, fmt.Errorf("await io: %w", errors.ErrInvalidArgument)
	}
	slot := rt.ioSlots.At(src.slot)
	if !slot.inUse || slot.id != src.id {
		return nil, fmt.Errorf("await io: %w", errors.ErrNotFound)
	}
	if slot.waiter != 0 && slot.waiter != a.id {
		return nil, fmt.Errorf("await io: source busy: %w", errors.ErrInvalidArgument)
	}

	takeResult := func() ([]byte, error) {
		slot.ready = false
		slot.waiter = 0
		data, err := slot.data, slot.err
		slot.data, slot.err = nil, nil
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, errors.ErrIO)
		}
		return data, nil
	}

	if slot.ready {
		return takeResult()
	}
	if timeout == 0 {
		return nil, errors.ErrWouldBlock
	}

	var ttag Tag
	if timeout > 0 {
		var err error
		ttag, err = rt.startTimer(a, timeout, 0, false)
		if err != nil {
			return nil, err
		}
	}

	slot.waiter = a.id
	a.wait = waitState{active: true, timeoutTag: ttag, ioSlot: src.slot}
	for {
		rt.block(a)
		if slot.ready {
			a.clearWait()
			rt.stopDeadlineTimer(a, ttag)
			return takeResult()
		}
		if ttag != 0 {
			if idx, ok := rt.scanMailbox(a, Filter{Sender: AnySender, Class: ClassTimer, Tag: ttag}); ok {
				rt.discardEntry(a, idx)
				a.clearWait()
				slot.waiter = 0
				return nil, fmt.Errorf("await io: %w", errors.ErrTimeout)
			}
		}
	}
}
