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

	"go.uber.org/atomic"

	"github.com/hivekit/hive/errors"
)

// completion carries the outcome of an external I/O operation from a
// collaborator goroutine into the scheduler loop.
type completion struct {
	slot int32
	data []byte
	err  error
}

// eventSource is the scheduler's external event backend. Two implementations
// exist: a channel-backed realtime source whose wait blocks with a bounded
// deadline, and a manual source for step-driven operation that never blocks
// the caller beyond the requested bound. Everything above the scheduler loop
// is backend-agnostic.
type eventSource interface {
	// poll returns one pending completion without blocking.
	poll() (completion, bool)
	// wait blocks for at most bound and returns one completion if any
	// arrived.
	wait(bound time.Duration) (completion, bool)
	// post delivers a completion; safe to call from any goroutine.
	post(c completion) error
	// close rejects further posts.
	close()
}

// channelSource is the realtime event source.
type channelSource struct {
	ch     chan completion
	closed *atomic.Bool
}

var _ eventSource = (*channelSource)(nil)

func newChannelSource(capacity int) (*channelSource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("event source capacity %d: %w", capacity, errors.ErrInvalidArgument)
	}
	return &channelSource{
		ch:     make(chan completion, capacity),
		closed: atomic.NewBool(false),
	}, nil
}

func (s *channelSource) poll() (completion, bool) {
	select {
	case c := <-s.ch:
		return c, true
	default:
		return completion{}, false
	}
}

func (s *channelSource) wait(bound time.Duration) (completion, bool) {
	if bound <= 0 {
		return s.poll()
	}
	timer := time.NewTimer(bound)
	defer timer.Stop()
	select {
	case c := <-s.ch:
		return c, true
	case <-timer.C:
		return completion{}, false
	}
}

func (s *channelSource) post(c completion) error {
	if s.closed.Load() {
		return errors.ErrClosed
	}
	select {
	case s.ch <- c:
		return nil
	default:
		return errors.ErrNoMemory
	}
}

func (s *channelSource) close() {
	s.closed.Store(true)
}

// manualSource backs step-driven runtimes, typically paired with the
// simulated clock. Its wait does not camp on a channel; it polls, then sleeps
// out the bound so a Run loop over it stays well behaved.
type manualSource struct {
	ch     chan completion
	closed *atomic.Bool
}

var _ eventSource = (*manualSource)(nil)

func newManualSource(capacity int) (*manualSource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("event source capacity %d: %w", capacity, errors.ErrInvalidArgument)
	}
	return &manualSource{
		ch:     make(chan completion, capacity),
		closed: atomic.NewBool(false),
	}, nil
}

func (s *manualSource) poll() (completion, bool) {
	select {
	case c := <-s.ch:
		return c, true
	default:
		return completion{}, false
	}
}

func (s *manualSource) wait(bound time.Duration) (completion, bool) {
	if c, ok := s.poll(); ok {
		return c, true
	}
	if bound > 0 {
		time.Sleep(bound)
	}
	return s.poll()
}

func (s *manualSource) post(c completion) error {
	if s.closed.Load() {
		return errors.ErrClosed
	}
	select {
	case s.ch <- c:
		return nil
	default:
		return errors.ErrNoMemory
	}
}

func (s *manualSource) close() {
	s.closed.Store(true)
}
