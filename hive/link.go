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
)

// monitorEntry is one slot of the fixed monitor pool. A monitor is
// asymmetric: it lives only on the monitoring side and is identified by a
// runtime-generated reference tag.
type monitorEntry struct {
	ref    Tag
	owner  ActorID
	target ActorID
	inUse  bool
}

// link creates the symmetric death-notification relationship: one entry on
// each side. Linking to self, to a dead actor, or twice fails.
func (rt *Runtime) link(a *actor, target ActorID) error {
	if target == a.id {
		return fmt.Errorf("link to self: %w", errors.ErrInvalidArgument)
	}
	tb, ok := rt.byID[target]
	if !ok {
		return fmt.Errorf("link to actor %d: %w", target, errors.ErrDead)
	}
	if a.links.Contains(target) {
		return fmt.Errorf("link to actor %d: %w", target, errors.ErrAlreadyExists)
	}
	if rt.linkCount+2 > rt.cfg.maxLinks {
		return fmt.Errorf("link to actor %d: %w", target, errors.ErrNoMemory)
	}
	a.links.Add(target)
	tb.links.Add(a.id)
	rt.linkCount += 2
	return nil
}

// unlink removes both sides of a link.
func (rt *Runtime) unlink(a *actor, target ActorID) error {
	if !a.links.Contains(target) {
		return fmt.Errorf("unlink actor %d: %w", target, errors.ErrNotFound)
	}
	a.links.Remove(target)
	if tb, ok := rt.byID[target]; ok {
		tb.links.Remove(a.id)
	}
	rt.linkCount -= 2
	return nil
}

// monitor creates a one-way death notification and returns its reference.
func (rt *Runtime) monitor(a *actor, target ActorID) (Tag, error) {
	if target == a.id {
		return 0, fmt.Errorf("monitor self: %w", errors.ErrInvalidArgument)
	}
	if _, ok := rt.byID[target]; !ok {
		return 0, fmt.Errorf("monitor actor %d: %w", target, errors.ErrDead)
	}
	var slot *monitorEntry
	for i := range rt.monitors {
		if !rt.monitors[i].inUse {
			slot = &rt.monitors[i]
			break
		}
	}
	if slot == nil {
		return 0, fmt.Errorf("monitor actor %d: %w", target, errors.ErrNoMemory)
	}
	slot.ref = rt.newRuntimeTag()
	slot.owner = a.id
	slot.target = target
	slot.inUse = true
	return slot.ref, nil
}

// demonitor cancels a monitor by its reference.
func (rt *Runtime) demonitor(a *actor, ref Tag) error {
	for i := range rt.monitors {
		m := &rt.monitors[i]
		if m.inUse && m.ref == ref && m.owner == a.id {
			m.inUse = false
			return nil
		}
	}
	return fmt.Errorf("demonitor %d: %w", ref, errors.ErrNotFound)
}

// propagateDeath walks the dying actor's links, sending each live peer one
// EXIT message and removing the reciprocal entry, then fires and frees every
// monitor targeting it. Monitors owned by the dying actor are freed silently.
// Delivery failures are logged, never retried: a peer with a full mailbox
// loses the notification.
func (rt *Runtime) propagateDeath(a *actor, reason ExitReason) {
	payload := encodeExit(a.id, reason)

	for _, partner := range a.links.ToSlice() {
		p, ok := rt.byID[partner]
		if !ok {
			continue
		}
		p.links.Remove(a.id)
		rt.linkCount -= 2
		if err := rt.sendMessage(a.id, partner, ClassExit, 0, payload); err != nil {
			rt.logger.Errorf("exit notification for actor %d to link %d failed: %v", a.id, partner, err)
		}
	}
	a.links.Clear()

	for i := range rt.monitors {
		m := &rt.monitors[i]
		if !m.inUse {
			continue
		}
		switch {
		case m.target == a.id:
			if err := rt.sendMessage(a.id, m.owner, ClassExit, m.ref, payload); err != nil {
				rt.logger.Errorf("exit notification for actor %d to monitor %d failed: %v", a.id, m.owner, err)
			}
			m.inUse = false
		case m.owner == a.id:
			m.inUse = false
		}
	}
}
