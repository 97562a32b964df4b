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

// recvMatch is the blocking heart of IPC: scan for the first entry matching
// the filter, otherwise install the filter as the actor's wait state and
// block, rescanning on every wake until a match or the timeout timer's
// message arrives. FIFO order is preserved among messages satisfying the
// same filter because the scan always starts at the head.
func (rt *Runtime) recvMatch(a *actor, f Filter, timeout time.Duration) (*Message, error) {
	if idx, ok := rt.scanMailbox(a, f); ok {
		return rt.takeMessage(a, idx), nil
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

	a.wait = waitState{active: true, filters: []Filter{f}, timeoutTag: ttag, ioSlot: pool.Nil}
	for {
		rt.block(a)
		if idx, ok := rt.scanMailboxExcept(a, f, ttag); ok {
			a.clearWait()
			rt.stopDeadlineTimer(a, ttag)
			return rt.takeMessage(a, idx), nil
		}
		if ttag != 0 {
			if idx, ok := rt.scanMailbox(a, Filter{Sender: AnySender, Class: ClassTimer, Tag: ttag}); ok {
				rt.discardEntry(a, idx)
				a.clearWait()
				return nil, fmt.Errorf("recv: %w", errors.ErrTimeout)
			}
		}
	}
}

// request sends a REQUEST under a fresh correlation tag and blocks for the
// REPLY carrying that exact tag from that exact target, so no other in-flight
// request can satisfy it.
func (rt *Runtime) request(a *actor, to ActorID, payload []byte, timeout time.Duration) (*Message, error) {
	tag := rt.newRuntimeTag()
	if err := rt.sendMessage(a.id, to, ClassRequest, tag, payload); err != nil {
		return nil, err
	}
	return rt.recvMatch(a, Filter{Sender: to, Class: ClassReply, Tag: tag}, timeout)
}

// reply answers a previously received REQUEST with a REPLY carrying the same
// tag.
func (rt *Runtime) reply(a *actor, req *Message, payload []byte) error {
	if req == nil || req.Class != ClassRequest {
		return fmt.Errorf("reply to non-request: %w", errors.ErrInvalidArgument)
	}
	return rt.sendMessage(a.id, req.Sender, ClassReply, req.Tag, payload)
}
