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
	"github.com/hivekit/hive/internal/pool"
)

// BusID identifies a publish/subscribe channel. Ids are nonzero.
type BusID uint32

// maxBusSubscribers bounds MaxSubscribers: each subscriber slot is one bit of
// the per-entry read mask.
const maxBusSubscribers = 64

// BusConfig sizes one bus at creation. Nothing grows afterwards.
type BusConfig struct {
	// MaxSubscribers bounds concurrent subscribers (at most 64).
	MaxSubscribers int
	// MaxEntries is the ring capacity; the oldest entry is evicted when a
	// publish would overflow it.
	MaxEntries int
	// MaxEntrySize bounds a single payload.
	MaxEntrySize int
	// MaxAge expires entries on publish; 0 disables expiry.
	MaxAge time.Duration
	// ConsumeAfterReads frees an entry once that many distinct subscribers
	// have read it; 0 disables auto-consume.
	ConsumeAfterReads int
}

type busEntry struct {
	buf         []byte
	n           int
	publishedAt time.Time
	readMask    uint64
	reads       int
	inUse       bool
}

type busSub struct {
	actor   ActorID
	blocked bool
}

type bus struct {
	id    BusID
	cfg   BusConfig
	slots []busEntry
	order []int32 // oldest-first live slot indices
	subs  []busSub
}

// CreateBus creates a bounded pub/sub channel. May be called before Run or
// from an actor.
func (rt *Runtime) CreateBus(cfg BusConfig) (BusID, error) {
	if rt.closed.Load() {
		return 0, fmt.Errorf("create bus: %w", errors.ErrClosed)
	}
	if cfg.MaxSubscribers <= 0 || cfg.MaxSubscribers > maxBusSubscribers ||
		cfg.MaxEntries <= 0 || cfg.MaxEntrySize <= 0 ||
		cfg.MaxAge < 0 || cfg.ConsumeAfterReads < 0 {
		return 0, fmt.Errorf("create bus: %w", errors.ErrInvalidArgument)
	}
	_, b, ok := rt.buses.Get()
	if !ok {
		return 0, fmt.Errorf("create bus: %w", errors.ErrNoMemory)
	}
	rt.nextBusID++
	if rt.nextBusID == 0 {
		rt.nextBusID = 1
	}
	b.id = rt.nextBusID
	b.cfg = cfg
	b.slots = make([]busEntry, cfg.MaxEntries)
	for i := range b.slots {
		b.slots[i].buf = make([]byte, cfg.MaxEntrySize)
	}
	b.order = make([]int32, 0, cfg.MaxEntries)
	b.subs = make([]busSub, cfg.MaxSubscribers)
	rt.busByID[b.id] = b
	return b.id, nil
}

// DestroyBus releases a bus. It fails while subscribers remain.
func (rt *Runtime) DestroyBus(id BusID) error {
	b, ok := rt.busByID[id]
	if !ok {
		return fmt.Errorf("destroy bus %d: %w", id, errors.ErrNotFound)
	}
	for i := range b.subs {
		if b.subs[i].actor != 0 {
			return fmt.Errorf("destroy bus %d: subscribers remain: %w", id, errors.ErrInvalidArgument)
		}
	}
	delete(rt.busByID, id)
	for i := 0; i < rt.buses.Cap(); i++ {
		if rt.buses.At(int32(i)).id == id {
			rt.buses.Put(int32(i))
			break
		}
	}
	return nil
}

func (rt *Runtime) lookupBus(id BusID) (*bus, error) {
	b, ok := rt.busByID[id]
	if !ok {
		return nil, fmt.Errorf("bus %d: %w", id, errors.ErrNotFound)
	}
	return b, nil
}

// subSlot returns the subscriber slot index of the actor on the bus, or -1.
func (b *bus) subSlot(id ActorID) int {
	for i := range b.subs {
		if b.subs[i].actor == id {
			return i
		}
	}
	return -1
}

// subscribe attaches the actor to a free subscriber slot. Entries already in
// the ring are marked read for the new slot: a subscriber only observes
// publishes that happen after it joined.
func (rt *Runtime) subscribe(a *actor, id BusID) error {
	b, err := rt.lookupBus(id)
	if err != nil {
		return err
	}
	if b.subSlot(a.id) >= 0 {
		return fmt.Errorf("subscribe bus %d: %w", id, errors.ErrAlreadyExists)
	}
	slot := -1
	for i := range b.subs {
		if b.subs[i].actor == 0 {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("subscribe bus %d: %w", id, errors.ErrNoMemory)
	}
	b.subs[slot] = busSub{actor: a.id}
	for _, si := range b.order {
		b.slots[si].readMask |= 1 << uint(slot)
	}
	return nil
}

func (rt *Runtime) unsubscribe(a *actor, id BusID) error {
	b, err := rt.lookupBus(id)
	if err != nil {
		return err
	}
	slot := b.subSlot(a.id)
	if slot < 0 {
		return fmt.Errorf("unsubscribe bus %d: %w", id, errors.ErrNotFound)
	}
	b.subs[slot] = busSub{}
	return nil
}

// dropBusSubscriptions detaches a dying actor from every bus.
func (rt *Runtime) dropBusSubscriptions(id ActorID) {
	for _, b := range rt.busByID {
		if slot := b.subSlot(id); slot >= 0 {
			b.subs[slot] = busSub{}
		}
	}
}

func (b *bus) freeEntry(orderIdx int) {
	si := b.order[orderIdx]
	b.slots[si].inUse = false
	b.slots[si].readMask = 0
	b.slots[si].reads = 0
	b.order = append(b.order[:orderIdx], b.order[orderIdx+1:]...)
}

// expire drops entries older than MaxAge. Expiry only runs on publish, never
// on a background clock.
func (b *bus) expire(now time.Time) {
	if b.cfg.MaxAge == 0 {
		return
	}
	for len(b.order) > 0 {
		first := &b.slots[b.order[0]]
		if now.Sub(first.publishedAt) <= b.cfg.MaxAge {
			return
		}
		b.freeEntry(0)
	}
}

// publish appends an entry, evicting the oldest one when the ring is full
// (deliberate data loss), and wakes every subscriber currently blocked on
// this bus.
func (rt *Runtime) publish(a *actor, id BusID, payload []byte) error {
	b, err := rt.lookupBus(id)
	if err != nil {
		return err
	}
	if len(payload) > b.cfg.MaxEntrySize {
		return fmt.Errorf("publish bus %d: payload %d exceeds %d: %w",
			id, len(payload), b.cfg.MaxEntrySize, errors.ErrInvalidArgument)
	}
	now := rt.clk.Now()
	b.expire(now)
	if len(b.order) == b.cfg.MaxEntries {
		b.freeEntry(0)
	}
	slot := int32(-1)
	for i := range b.slots {
		if !b.slots[i].inUse {
			slot = int32(i)
			break
		}
	}
	e := &b.slots[slot]
	e.n = copy(e.buf, payload)
	e.publishedAt = now
	e.readMask = 0
	e.reads = 0
	e.inUse = true
	b.order = append(b.order, slot)

	for i := range b.subs {
		s := &b.subs[i]
		if s.actor == 0 || !s.blocked {
			continue
		}
		if w, ok := rt.byID[s.actor]; ok && w.state == stateWaiting {
			w.state = stateReady
		}
	}
	return nil
}

// busRead returns the oldest entry this subscriber has not read, marks it
// read, and frees it once ConsumeAfterReads distinct subscribers have seen
// it. Non-blocking.
func (rt *Runtime) busRead(a *actor, id BusID) ([]byte, error) {
	b, err := rt.lookupBus(id)
	if err != nil {
		return nil, err
	}
	slot := b.subSlot(a.id)
	if slot < 0 {
		return nil, fmt.Errorf("read bus %d: not subscribed: %w", id, errors.ErrInvalidArgument)
	}
	bit := uint64(1) << uint(slot)
	for oi, si := range b.order {
		e := &b.slots[si]
		if e.readMask&bit != 0 {
			continue
		}
		e.readMask |= bit
		e.reads++
		data := make([]byte, e.n)
		copy(data, e.buf[:e.n])
		if b.cfg.ConsumeAfterReads > 0 && e.reads >= b.cfg.ConsumeAfterReads {
			b.freeEntry(oi)
		}
		return data, nil
	}
	return nil, errors.ErrWouldBlock
}

// busReadWait reads with recv-style timeout semantics, blocking with the
// subscriber marked "blocked" so publish can wake it.
func (rt *Runtime) busReadWait(a *actor, id BusID, timeout time.Duration) ([]byte, error) {
	data, err := rt.busRead(a, id)
	if err == nil || err != errors.ErrWouldBlock {
		return data, err
	}
	if timeout == 0 {
		return nil, errors.ErrWouldBlock
	}
	b, err := rt.lookupBus(id)
	if err != nil {
		return nil, err
	}
	slot := b.subSlot(a.id)

	var ttag Tag
	if timeout > 0 {
		ttag, err = rt.startTimer(a, timeout, 0, false)
		if err != nil {
			return nil, err
		}
	}

	a.wait = waitState{active: true, timeoutTag: ttag, ioSlot: pool.Nil, buses: []BusID{id}}
	b.subs[slot].blocked = true
	for {
		rt.block(a)
		b.subs[slot].blocked = false
		data, rerr := rt.busRead(a, id)
		if rerr == nil {
			a.clearWait()
			rt.stopDeadlineTimer(a, ttag)
			return data, nil
		}
		if ttag != 0 {
			if idx, ok := rt.scanMailbox(a, Filter{Sender: AnySender, Class: ClassTimer, Tag: ttag}); ok {
				rt.discardEntry(a, idx)
				a.clearWait()
				return nil, fmt.Errorf("read bus %d: %w", id, errors.ErrTimeout)
			}
		}
		b.subs[slot].blocked = true
	}
}
