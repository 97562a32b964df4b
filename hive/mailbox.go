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

	"github.com/hivekit/hive/errors"
	"github.com/hivekit/hive/internal/pool"
)

// mailEntry is one node of an actor's mailbox. Entries come from a single
// runtime-wide slab and are doubly linked by index, so selective receive can
// unlink from the middle in O(1) once the scan has found its match. Payload
// bytes live in a parallel buffer table sized once at construction.
type mailEntry struct {
	sender ActorID
	class  MessageClass
	tag    Tag
	n      int
	prev   int32
	next   int32
}

// sendMessage copies payload into a pooled entry and appends it to the
// recipient's mailbox, waking the recipient when the message satisfies its
// installed receive filter. It never blocks; pool exhaustion is reported to
// the sender.
func (rt *Runtime) sendMessage(sender ActorID, to ActorID, class MessageClass, tag Tag, payload []byte) error {
	tb, ok := rt.byID[to]
	if !ok {
		return fmt.Errorf("send to actor %d: %w", to, errors.ErrDead)
	}
	if len(payload) > rt.cfg.maxPayload {
		return fmt.Errorf("payload %d exceeds %d: %w", len(payload), rt.cfg.maxPayload, errors.ErrInvalidArgument)
	}
	idx, e, ok := rt.mailPool.Get()
	if !ok {
		rt.logger.Debugf("mailbox pool exhausted sending to actor %d", to)
		return fmt.Errorf("send to actor %d: %w", to, errors.ErrNoMemory)
	}
	e.sender = sender
	e.class = class
	e.tag = tag
	e.n = copy(rt.mailBufs[idx][:rt.cfg.maxPayload], payload)
	e.prev = tb.mtail
	e.next = pool.Nil
	if tb.mtail != pool.Nil {
		rt.mailPool.At(tb.mtail).next = idx
	} else {
		tb.mhead = idx
	}
	tb.mtail = idx
	tb.mcount++

	if tb.state == stateWaiting && tb.wait.wakes(sender, class, tag) {
		tb.state = stateReady
	}
	return nil
}

// scanMailbox walks the mailbox from head and returns the index of the first
// entry satisfying the filter.
func (rt *Runtime) scanMailbox(a *actor, f Filter) (int32, bool) {
	for idx := a.mhead; idx != pool.Nil; {
		e := rt.mailPool.At(idx)
		if f.match(e.sender, e.class, e.tag) {
			return idx, true
		}
		idx = e.next
	}
	return pool.Nil, false
}

// scanMailboxExcept is scanMailbox with the internal deadline timer's message
// masked out, so a broad filter can never surface it as application traffic.
func (rt *Runtime) scanMailboxExcept(a *actor, f Filter, ttag Tag) (int32, bool) {
	for idx := a.mhead; idx != pool.Nil; {
		e := rt.mailPool.At(idx)
		if ttag != 0 && e.class == ClassTimer && e.tag == ttag {
			idx = e.next
			continue
		}
		if f.match(e.sender, e.class, e.tag) {
			return idx, true
		}
		idx = e.next
	}
	return pool.Nil, false
}

// unlinkEntry removes the entry at idx from its owner's list without
// releasing it.
func (rt *Runtime) unlinkEntry(a *actor, idx int32) {
	e := rt.mailPool.At(idx)
	if e.prev != pool.Nil {
		rt.mailPool.At(e.prev).next = e.next
	} else {
		a.mhead = e.next
	}
	if e.next != pool.Nil {
		rt.mailPool.At(e.next).prev = e.prev
	} else {
		a.mtail = e.prev
	}
	a.mcount--
}

// takeMessage unlinks the entry at idx and converts it into an owned Message.
func (rt *Runtime) takeMessage(a *actor, idx int32) *Message {
	rt.unlinkEntry(a, idx)
	e := rt.mailPool.At(idx)
	msg := &Message{
		Sender: e.sender,
		Class:  e.class,
		Tag:    e.tag,
	}
	if e.n > 0 {
		msg.Payload = make([]byte, e.n)
		copy(msg.Payload, rt.mailBufs[idx][:e.n])
	}
	rt.mailPool.Put(idx)
	return msg
}

// discardEntry unlinks and releases the entry at idx.
func (rt *Runtime) discardEntry(a *actor, idx int32) {
	rt.unlinkEntry(a, idx)
	rt.mailPool.Put(idx)
}

// flushMailbox releases every pending entry of a dying actor.
func (rt *Runtime) flushMailbox(a *actor) {
	for idx := a.mhead; idx != pool.Nil; {
		next := rt.mailPool.At(idx).next
		rt.mailPool.Put(idx)
		idx = next
	}
	a.mhead, a.mtail, a.mcount = pool.Nil, pool.Nil, 0
}
