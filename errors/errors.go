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

// Package errors defines the status taxonomy returned by every fallible
// operation of the hive runtime. Callers are expected to test against these
// sentinels with errors.Is after any wrapping applied by the runtime.
package errors

import "errors"

// Is reports whether any error in err's chain matches target. It is
// re-exported so callers of this package do not need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

var (
	// ErrNoMemory is returned when a fixed-capacity pool (actor table, stack
	// arena, mailbox entries, bus entries or subscribers, timers, links,
	// monitors, I/O sources) cannot satisfy a request. Exhaustion is a normal,
	// recoverable condition: the runtime never queues or retries internally,
	// callers apply their own backoff and resend.
	ErrNoMemory = errors.New("resource pool exhausted")

	// ErrInvalidArgument is returned when an operation is called with an
	// argument that fails validation, such as an unknown actor id, an
	// oversized payload, or a bus source that is not subscribed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout is returned when a bounded blocking call expires before a
	// matching event arrives.
	ErrTimeout = errors.New("operation timed out")

	// ErrClosed is returned when an operation targets a runtime, bus, or I/O
	// source that has been shut down.
	ErrClosed = errors.New("closed")

	// ErrWouldBlock is returned by non-blocking calls (timeout of zero) when
	// no matching event is immediately available, and by select when a wake
	// turns out to be spurious after rescanning its sources.
	ErrWouldBlock = errors.New("operation would block")

	// ErrIO is returned when a pluggable I/O collaborator completes an awaited
	// operation with a failure.
	ErrIO = errors.New("i/o error")

	// ErrAlreadyExists is returned when a registration conflicts with an
	// existing one, such as spawning a registered actor under a name that is
	// already taken or linking the same pair of actors twice.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDead is returned when an operation targets an actor that is no
	// longer alive.
	ErrDead = errors.New("actor is not alive")

	// ErrNotFound is returned when a link, monitor, timer, bus, or registered
	// name cannot be resolved.
	ErrNotFound = errors.New("not found")

	// ErrDeadlock is reported by the scheduler loop when every live actor is
	// WAITING and no pending timer, I/O source, or external event can ever
	// make one READY again.
	ErrDeadlock = errors.New("all actors waiting with no pending event")
)
