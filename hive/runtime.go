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
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/hivekit/hive/errors"
	"github.com/hivekit/hive/internal/pool"
	"github.com/hivekit/hive/log"
)

// Runtime owns every shared resource of one actor system: the actor table,
// the stack arena, the mailbox pool, the bus table, the timer pool, the
// link/monitor pools, and the I/O source table. Multiple isolated runtimes
// can coexist in one process.
//
// All state mutation happens either on the goroutine driving Run/Step or on
// the single RUNNING actor goroutine while the scheduler is parked, so no
// locking is required anywhere in the core.
type Runtime struct {
	id     string
	logger log.Logger
	cfg    config

	clk       clock
	simulated bool
	evsrc     eventSource

	actors  *pool.Slab[actor]
	byID    map[ActorID]*actor
	names   map[string]ActorID
	nextID  ActorID
	nextTag Tag

	current *actor
	rr      [numPriorities]int32

	arena    *stackArena
	mailPool *pool.Slab[mailEntry]
	mailBufs [][]byte

	buses     *pool.Slab[bus]
	busByID   map[BusID]*bus
	nextBusID BusID

	timers    []timerEntry
	numTimers int

	monitors  []monitorEntry
	linkCount int

	ioSlots *pool.Slab[ioSlot]

	started *atomic.Bool
	closed  *atomic.Bool
}

// New creates an isolated runtime with every pool sized from the options.
// It fails rather than proceed partially initialized.
func New(opts ...Option) (*Runtime, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		evsrc eventSource
		err   error
	)
	queueCap := 2 * cfg.maxIOSources
	if cfg.manualEvents {
		evsrc, err = newManualSource(queueCap)
	} else {
		evsrc, err = newChannelSource(queueCap)
	}
	if err != nil {
		return nil, fmt.Errorf("create event source: %w", err)
	}

	var clk clock
	if cfg.simulatedClock {
		clk = &simClock{now: time.Unix(0, 0).UTC()}
	} else {
		clk = wallClock{}
	}

	rt := &Runtime{
		id:        uuid.NewString(),
		logger:    cfg.logger,
		cfg:       cfg,
		clk:       clk,
		simulated: cfg.simulatedClock,
		evsrc:     evsrc,
		actors:    pool.NewSlab[actor](cfg.maxActors),
		byID:      make(map[ActorID]*actor, cfg.maxActors),
		names:     make(map[string]ActorID),
		arena:     newStackArena(cfg.arenaSize),
		mailPool:  pool.NewSlab[mailEntry](cfg.mailboxCap),
		mailBufs:  make([][]byte, cfg.mailboxCap),
		buses:     pool.NewSlab[bus](cfg.maxBuses),
		busByID:   make(map[BusID]*bus, cfg.maxBuses),
		timers:    make([]timerEntry, cfg.maxTimers),
		monitors:  make([]monitorEntry, cfg.maxMonitors),
		ioSlots:   pool.NewSlab[ioSlot](cfg.maxIOSources),
		started:   atomic.NewBool(false),
		closed:    atomic.NewBool(false),
	}
	for i := range rt.mailBufs {
		rt.mailBufs[i] = make([]byte, cfg.maxPayload)
	}
	rt.logger.Infof("runtime %s created: %d actor slots, %d byte arena", rt.id, cfg.maxActors, cfg.arenaSize)
	return rt, nil
}

func (c *config) validate() error {
	positive := map[string]int{
		"max actors":       c.maxActors,
		"arena size":       c.arenaSize,
		"default stack":    c.defaultStack,
		"mailbox capacity": c.mailboxCap,
		"max payload":      c.maxPayload,
		"max buses":        c.maxBuses,
		"max timers":       c.maxTimers,
		"max links":        c.maxLinks,
		"max monitors":     c.maxMonitors,
		"max io sources":   c.maxIOSources,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%s must be positive: %w", name, errors.ErrInvalidArgument)
		}
	}
	if c.maxPayload < exitPayloadSize {
		return fmt.Errorf("max payload below %d: %w", exitPayloadSize, errors.ErrInvalidArgument)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %w", errors.ErrInvalidArgument)
	}
	if c.logger == nil {
		return fmt.Errorf("nil logger: %w", errors.ErrInvalidArgument)
	}
	return nil
}

// ID returns the unique runtime instance id.
func (rt *Runtime) ID() string {
	return rt.id
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() log.Logger {
	return rt.logger
}

// Now returns the current time on the runtime's timeline (wall or simulated).
func (rt *Runtime) Now() time.Time {
	return rt.clk.Now()
}

// Alive reports whether the actor id refers to a live actor.
func (rt *Runtime) Alive(id ActorID) bool {
	_, ok := rt.byID[id]
	return ok
}

// Whereis resolves a registered actor name.
func (rt *Runtime) Whereis(name string) (ActorID, error) {
	id, ok := rt.names[name]
	if !ok {
		return 0, fmt.Errorf("whereis %q: %w", name, errors.ErrNotFound)
	}
	return id, nil
}

// Spawn creates an actor and enqueues it READY. It never blocks: actor table
// or arena exhaustion is returned as ErrNoMemory for the caller to handle.
func (rt *Runtime) Spawn(entry Entry, args any, cfg SpawnConfig) (ActorID, error) {
	return rt.spawn(entry, args, cfg, nil)
}

func (rt *Runtime) spawn(entry Entry, args any, cfg SpawnConfig, siblings []Sibling) (ActorID, error) {
	if rt.closed.Load() {
		return 0, fmt.Errorf("spawn: %w", errors.ErrClosed)
	}
	if entry == nil {
		return 0, fmt.Errorf("spawn: nil entry: %w", errors.ErrInvalidArgument)
	}
	if cfg.Priority < PriorityCritical || cfg.Priority > PriorityLow {
		return 0, fmt.Errorf("spawn: priority %d: %w", cfg.Priority, errors.ErrInvalidArgument)
	}
	if cfg.Register && cfg.Name == "" {
		return 0, fmt.Errorf("spawn: register without name: %w", errors.ErrInvalidArgument)
	}
	if cfg.Register {
		if _, taken := rt.names[cfg.Name]; taken {
			return 0, fmt.Errorf("spawn %q: %w", cfg.Name, errors.ErrAlreadyExists)
		}
	}

	slot, a, ok := rt.actors.Get()
	if !ok {
		return 0, fmt.Errorf("spawn %q: actor table full: %w", cfg.Name, errors.ErrNoMemory)
	}

	stackSize := cfg.StackSize
	if stackSize == 0 {
		stackSize = rt.cfg.defaultStack
	}
	total := alignUp(stackSize) + 2*guardSize
	if cfg.DirectAlloc {
		a.arenaOff = -1
		a.backing = make([]byte, total)
	} else {
		off, err := rt.arena.alloc(total)
		if err != nil {
			rt.actors.Put(slot)
			return 0, fmt.Errorf("spawn %q: %w", cfg.Name, err)
		}
		a.arenaOff = off
		a.backing = rt.arena.region(off)
	}
	a.workspace = writeGuards(a.backing)

	rt.nextID++
	if rt.nextID == 0 {
		rt.nextID = 1
	}
	a.id = rt.nextID
	a.slot = slot
	a.name = cfg.Name
	a.registered = cfg.Register
	a.state = stateReady
	a.priority = cfg.Priority
	a.entry = entry
	a.args = args
	a.siblings = siblings
	a.mhead, a.mtail = pool.Nil, pool.Nil
	a.links = mapset.NewThreadUnsafeSet[ActorID]()
	a.fib = newFiber()
	a.ctx = &Context{rt: rt, self: a}

	rt.byID[a.id] = a
	if cfg.Register {
		rt.names[cfg.Name] = a.id
	}
	a.fib.start(a, a.ctx)
	rt.logger.Debugf("spawned actor %d %q priority=%s", a.id, a.name, a.priority)
	return a.id, nil
}

// GroupMember describes one actor of a SpawnGroup batch.
type GroupMember struct {
	Entry  Entry
	Args   any
	Config SpawnConfig
}

// SpawnGroup spawns a batch of collaborating actors and hands each one the
// full sibling table, so members discover each other by name. On any failure
// the already-spawned members are destroyed and the error returned.
func (rt *Runtime) SpawnGroup(members []GroupMember) ([]ActorID, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("spawn group: empty: %w", errors.ErrInvalidArgument)
	}
	ids := make([]ActorID, 0, len(members))
	for _, m := range members {
		id, err := rt.spawn(m.Entry, m.Args, m.Config, nil)
		if err != nil {
			for _, spawned := range ids {
				rt.destroyActor(rt.byID[spawned], ReasonKilled)
			}
			return nil, fmt.Errorf("spawn group: %w", err)
		}
		ids = append(ids, id)
	}
	table := make([]Sibling, len(members))
	for i, id := range ids {
		table[i] = Sibling{Name: members[i].Config.Name, ID: id, Registered: members[i].Config.Register}
	}
	for _, id := range ids {
		rt.byID[id].siblings = table
	}
	return ids, nil
}

// Kill marks the target for destruction with reason KILLED. It takes effect
// at the next scheduling decision that selects the target, never in the
// middle of its slice, and cannot target the currently running actor.
func (rt *Runtime) Kill(id ActorID) error {
	a, ok := rt.byID[id]
	if !ok {
		return fmt.Errorf("kill actor %d: %w", id, errors.ErrDead)
	}
	if rt.current != nil && rt.current.id == id {
		return fmt.Errorf("kill self: %w", errors.ErrInvalidArgument)
	}
	a.killed = true
	if a.state == stateWaiting {
		a.state = stateReady
	}
	return nil
}

// Step drains pending completions, fires due timers, and runs READY actors
// until none remain. It returns true while live actors remain. Step is the
// building block for deterministic, test-driven operation; Run wraps it with
// idle blocking.
func (rt *Runtime) Step() (bool, error) {
	if rt.closed.Load() {
		return false, fmt.Errorf("step: %w", errors.ErrClosed)
	}
	for {
		for {
			c, ok := rt.evsrc.poll()
			if !ok {
				break
			}
			rt.applyCompletion(c)
		}
		rt.fireDueTimers()
		a := rt.pickNext()
		if a == nil {
			break
		}
		rt.runSlice(a)
	}
	return rt.actors.Used() > 0, nil
}

// Run drives the scheduler until no live actor remains, the context is
// canceled, or the loop deadlocks with every actor WAITING and nothing
// pending that could ever wake one.
func (rt *Runtime) Run(ctx context.Context) error {
	if rt.closed.Load() {
		return fmt.Errorf("run: %w", errors.ErrClosed)
	}
	if !rt.started.CompareAndSwap(false, true) {
		return fmt.Errorf("run: already running: %w", errors.ErrInvalidArgument)
	}
	defer rt.started.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		live, err := rt.Step()
		if err != nil {
			return err
		}
		if !live {
			return nil
		}

		// nothing READY: block on the event source bounded by the earliest
		// timer deadline and the poll interval
		bound := rt.cfg.pollInterval
		switch deadline, ok := rt.nextDeadline(); {
		case ok && !rt.simulated:
			if until := deadline.Sub(rt.clk.Now()); until < bound {
				bound = until
			}
			if bound < 0 {
				bound = 0
			}
		case !ok || rt.simulated:
			// simulated timers only move through AdvanceTime, which needs a
			// runnable actor; with none, only I/O can wake us
			if rt.ioSlots.Used() == 0 {
				return fmt.Errorf("run: %w", errors.ErrDeadlock)
			}
		}
		if c, ok := rt.evsrc.wait(bound); ok {
			rt.applyCompletion(c)
		}
	}
}

// Shutdown terminates every remaining actor goroutine and releases the
// runtime. No EXIT propagation happens; the runtime is unusable afterwards.
func (rt *Runtime) Shutdown() error {
	if !rt.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("shutdown: %w", errors.ErrClosed)
	}
	for _, a := range rt.byID {
		if !a.done {
			a.fib.terminate()
		}
		rt.actors.Put(a.slot)
	}
	rt.byID = map[ActorID]*actor{}
	rt.names = map[string]ActorID{}
	rt.evsrc.close()
	rt.logger.Infof("runtime %s shut down", rt.id)
	return nil
}

// block parks the current actor as WAITING until an event makes it READY and
// the scheduler selects it again. Runs on the actor goroutine.
func (rt *Runtime) block(a *actor) {
	a.state = stateWaiting
	a.fib.yieldToScheduler()
}

// checkCurrent guards operations that are only meaningful on the currently
// running actor.
func (rt *Runtime) checkCurrent(a *actor) error {
	if rt.current != a {
		return fmt.Errorf("call outside the running actor: %w", errors.ErrInvalidArgument)
	}
	return nil
}

// newRuntimeTag allocates a runtime-generated tag (high bit set). Tags wrap
// within the runtime space and never collide with TagAny.
func (rt *Runtime) newRuntimeTag() Tag {
	rt.nextTag++
	if rt.nextTag >= runtimeTagBit-1 {
		rt.nextTag = 1
	}
	return rt.nextTag | runtimeTagBit
}
