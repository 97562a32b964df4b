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

// SourceKind tags a select source.
type SourceKind int8

const (
	// SourceBus waits for an unread bus entry.
	SourceBus SourceKind = iota
	// SourceIPC waits for a mailbox message matching a filter.
	SourceIPC
)

// SelectSource is one alternative of a Select call.
type SelectSource struct {
	Kind   SourceKind
	Bus    BusID
	Filter Filter
}

// BusSource builds a bus alternative. The calling actor must already be
// subscribed.
func BusSource(id BusID) SelectSource {
	return SelectSource{Kind: SourceBus, Bus: id}
}

// IPCSource builds a mailbox alternative.
func IPCSource(f Filter) SelectSource {
	return SelectSource{Kind: SourceIPC, Filter: f}
}

// SelectResult reports which source fired. Index is the position in the
// sources array; Data is set for bus sources, Message for IPC sources.
type SelectResult struct {
	Index   int
	Data    []byte
	Message *Message
}

// selectWait implements the unified wait. The non-blocking scan order is
// deterministic: every bus source in array order, then every IPC source in
// array order; the first match wins. A wake that matches nothing after the
// rescan reports ErrWouldBlock instead of blocking again, so racing sources
// can never strand the caller.
func (rt *Runtime) selectWait(a *actor, sources []SelectSource, timeout time.Duration) (*SelectResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("select: no sources: %w", errors.ErrInvalidArgument)
	}
	type busRef struct {
		b    *bus
		slot int
	}
	refs := make([]busRef, 0, len(sources))
	for _, src := range sources {
		if src.Kind != SourceBus {
			continue
		}
		b, err := rt.lookupBus(src.Bus)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		slot := b.subSlot(a.id)
		if slot < 0 {
			return nil, fmt.Errorf("select: bus %d not subscribed: %w", src.Bus, errors.ErrInvalidArgument)
		}
		refs = append(refs, busRef{b: b, slot: slot})
	}

	// ttag masks the internal deadline timer's message from the IPC scan; a
	// broad source filter must never surface it as a result
	scan := func(ttag Tag) (*SelectResult, bool) {
		for i, src := range sources {
			if src.Kind != SourceBus {
				continue
			}
			if data, err := rt.busRead(a, src.Bus); err == nil {
				return &SelectResult{Index: i, Data: data}, true
			}
		}
		for i, src := range sources {
			if src.Kind != SourceIPC {
				continue
			}
			if idx, ok := rt.scanMailboxExcept(a, src.Filter, ttag); ok {
				return &SelectResult{Index: i, Message: rt.takeMessage(a, idx)}, true
			}
		}
		return nil, false
	}

	if res, ok := scan(0); ok {
		return res, nil
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

	filters := make([]Filter, 0, len(sources))
	buses := make([]BusID, 0, len(refs))
	for _, src := range sources {
		if src.Kind == SourceIPC {
			filters = append(filters, src.Filter)
		} else {
			buses = append(buses, src.Bus)
		}
	}
	a.wait = waitState{active: true, filters: filters, timeoutTag: ttag, ioSlot: pool.Nil, buses: buses}
	for _, r := range refs {
		r.b.subs[r.slot].blocked = true
	}

	rt.block(a)

	for _, r := range refs {
		r.b.subs[r.slot].blocked = false
	}
	a.clearWait()

	if res, ok := scan(ttag); ok {
		rt.stopDeadlineTimer(a, ttag)
		return res, nil
	}
	if ttag != 0 {
		if idx, ok := rt.scanMailbox(a, Filter{Sender: AnySender, Class: ClassTimer, Tag: ttag}); ok {
			rt.discardEntry(a, idx)
			return nil, fmt.Errorf("select: %w", errors.ErrTimeout)
		}
		rt.stopDeadlineTimer(a, ttag)
	}
	// spurious wake: the caller loops if it needs a definite event
	return nil, errors.ErrWouldBlock
}
