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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/hivekit/hive/internal/pool"
)

// ActorID identifies a live or dead actor. Ids are nonzero and monotonic;
// they are never reused within a runtime instance.
type ActorID uint32

// Priority orders actors for scheduling. The scheduler always runs the
// highest-priority READY actor; within one level it round-robins.
type Priority int32

const (
	// PriorityCritical is the highest scheduling priority.
	PriorityCritical Priority = iota
	// PriorityHigh is scheduled ahead of normal and low work.
	PriorityHigh
	// PriorityNormal is the default priority.
	PriorityNormal
	// PriorityLow runs only when nothing above it is READY.
	PriorityLow

	numPriorities = 4
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return ""
	}
}

// ExitReason classifies how an actor died.
type ExitReason int32

const (
	// ReasonNormal means the actor exited through Context.Exit.
	ReasonNormal ExitReason = iota
	// ReasonCrash means the entry function returned without exiting, or
	// panicked.
	ReasonCrash
	// ReasonCrashStack means workspace guard-word corruption was detected at
	// a schedule boundary.
	ReasonCrashStack
	// ReasonKilled means the actor was terminated externally through Kill.
	ReasonKilled
)

// String returns the string representation of the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ReasonNormal:
		return "NORMAL"
	case ReasonCrash:
		return "CRASH"
	case ReasonCrashStack:
		return "CRASH_STACK"
	case ReasonKilled:
		return "KILLED"
	default:
		return ""
	}
}

// Abnormal reports whether the reason counts as an abnormal exit for
// supervision purposes.
func (r ExitReason) Abnormal() bool {
	return r != ReasonNormal
}

// Entry is an actor entry function. Returning from it without calling
// Context.Exit is classified as a crash.
type Entry func(*Context)

// SpawnConfig carries per-actor spawn parameters.
type SpawnConfig struct {
	// Name is the debug and registry name. Required when Register is set.
	Name string
	// StackSize is the workspace size in bytes; 0 selects the runtime
	// default.
	StackSize int
	// Priority is the scheduling priority; the zero value is
	// PriorityCritical, so most callers set PriorityNormal explicitly.
	Priority Priority
	// DirectAlloc bypasses the stack arena and allocates the workspace
	// directly.
	DirectAlloc bool
	// Register publishes the actor under Name for Whereis lookups.
	Register bool
}

// Sibling describes a collaborator spawned in the same group, letting actors
// discover each other by name instead of hardcoded ids.
type Sibling struct {
	Name       string
	ID         ActorID
	Registered bool
}

type state int32

const (
	stateReady state = iota
	stateRunning
	stateWaiting
	stateDead
)

// waitState records what a WAITING actor is blocked on. It stays installed
// until the blocking operation clears it, so the wake path can test incoming
// messages against it without resuming the actor.
type waitState struct {
	active     bool
	filters    []Filter
	timeoutTag Tag   // internal timeout timer, 0 when unbounded
	ioSlot     int32 // pool.Nil unless blocked in AwaitIO
	buses      []BusID
}

func (w *waitState) wakes(sender ActorID, class MessageClass, tag Tag) bool {
	if !w.active {
		return false
	}
	if w.timeoutTag != 0 && class == ClassTimer && tag == w.timeoutTag {
		return true
	}
	for _, f := range w.filters {
		if f.match(sender, class, tag) {
			return true
		}
	}
	return false
}

// actor is the control block held in the runtime's fixed actor table.
type actor struct {
	id         ActorID
	slot       int32
	name       string
	registered bool
	state      state
	priority   Priority

	entry    Entry
	args     any
	siblings []Sibling
	fib      *fiber
	ctx      *Context

	// workspace region; arenaOff is -1 when directly allocated
	arenaOff  int
	backing   []byte
	workspace []byte

	mhead  int32
	mtail  int32
	mcount int

	wait  waitState
	links mapset.Set[ActorID]

	killed bool
	done   bool
	reason ExitReason
	panicv any
}

func (a *actor) clearWait() {
	a.wait.active = false
	a.wait.filters = nil
	a.wait.timeoutTag = 0
	a.wait.ioSlot = pool.Nil
	a.wait.buses = nil
}
