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
	"bytes"
	"fmt"
	"time"

	"github.com/hivekit/hive/errors"
)

// RestartPolicy controls whether a supervisor restarts a dead child.
type RestartPolicy int

const (
	// RestartPermanent restarts the child regardless of its exit reason.
	RestartPermanent RestartPolicy = iota
	// RestartTransient restarts the child only after an abnormal exit.
	RestartTransient
	// RestartTemporary never restarts the child.
	RestartTemporary
)

func (p RestartPolicy) String() string {
	switch p {
	case RestartPermanent:
		return "Permanent"
	case RestartTransient:
		return "Transient"
	case RestartTemporary:
		return "Temporary"
	default:
		return fmt.Sprintf("RestartPolicy(%d)", int(p))
	}
}

// Strategy selects which children a supervisor restarts when one dies.
type Strategy int

const (
	// OneForOne restarts only the child that died.
	OneForOne Strategy = iota
)

func (s Strategy) String() string {
	switch s {
	case OneForOne:
		return "OneForOne"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ChildSpec declares one supervised child. A named child is registered under
// its name, so lookups keep working across restarts even though the actor id
// changes.
type ChildSpec struct {
	Name    string
	Entry   Entry
	Args    any
	Restart RestartPolicy
	Config  SpawnConfig
}

// SupervisorSpec declares a supervisor: its children, restart strategy, and
// restart intensity. When more than MaxRestarts restarts happen within
// RestartPeriod the supervisor kills its remaining children, runs OnShutdown
// if set, and dies abnormally so failure propagates upward.
type SupervisorSpec struct {
	Children      []ChildSpec
	Strategy      Strategy
	MaxRestarts   int
	RestartPeriod time.Duration
	// OnShutdown runs once, just before the supervisor escalates after
	// exceeding its restart budget. Optional.
	OnShutdown func()
}

// stopRequestPayload marks the internal stop request handled by the
// supervisor loop ahead of application traffic.
var stopRequestPayload = []byte("\x00hive.supervisor.stop")

// SpawnSupervisor spawns a supervisor actor for the given spec. The
// supervisor spawns and monitors every child before it first yields, so by
// the time it runs a slice the whole tree is up or the supervisor has died
// escalating the spawn failure.
func (rt *Runtime) SpawnSupervisor(spec SupervisorSpec, cfg SpawnConfig) (ActorID, error) {
	if len(spec.Children) == 0 {
		return 0, fmt.Errorf("spawn supervisor: no children: %w", errors.ErrInvalidArgument)
	}
	if spec.Strategy != OneForOne {
		return 0, fmt.Errorf("spawn supervisor: unknown strategy: %w", errors.ErrInvalidArgument)
	}
	if spec.MaxRestarts < 0 || spec.RestartPeriod < 0 {
		return 0, fmt.Errorf("spawn supervisor: %w", errors.ErrInvalidArgument)
	}
	for i, ch := range spec.Children {
		if ch.Entry == nil {
			return 0, fmt.Errorf("spawn supervisor: child %d has no entry: %w", i, errors.ErrInvalidArgument)
		}
	}
	return rt.Spawn(supervise, spec, cfg)
}

// StopSupervisor asks a supervisor to shut down: it kills every remaining
// child and exits normally. The call blocks for the supervisor's
// acknowledgement with the usual timeout semantics.
func StopSupervisor(c *Context, sup ActorID, timeout time.Duration) error {
	_, err := c.Request(sup, stopRequestPayload, timeout)
	if err != nil {
		return fmt.Errorf("stop supervisor %d: %w", sup, err)
	}
	return nil
}

// supChild is the supervisor's bookkeeping for one child slot. A dead,
// not-restarted child keeps its spec but has id 0.
type supChild struct {
	spec ChildSpec
	id   ActorID
	ref  Tag
}

// supervise is the supervisor actor body. It is deliberately built from the
// same primitives applications use: spawn, monitor, recv, and timers.
func supervise(c *Context) {
	spec := c.Args().(SupervisorSpec)
	children := make([]supChild, len(spec.Children))
	refs := make(map[Tag]int, len(spec.Children))

	for i, ch := range spec.Children {
		id, ref, err := superviseStart(c, ch)
		if err != nil {
			c.Logger().Errorf("supervisor %d: start child %q: %v", c.ID(), ch.Name, err)
			superviseStopChildren(c, children, refs)
			return
		}
		children[i] = supChild{spec: ch, id: id, ref: ref}
		refs[ref] = i
	}

	// Sliding window of restart instants, pruned against RestartPeriod on
	// every restart decision.
	var restarts []time.Time

	for {
		msg, err := c.Recv(-1)
		if err != nil {
			c.Logger().Errorf("supervisor %d: recv: %v", c.ID(), err)
			superviseStopChildren(c, children, refs)
			return
		}

		switch {
		case msg.Class == ClassRequest && bytes.Equal(msg.Payload, stopRequestPayload):
			superviseStopChildren(c, children, refs)
			if err := c.Reply(msg, nil); err != nil {
				c.Logger().Errorf("supervisor %d: stop ack: %v", c.ID(), err)
			}
			c.Exit()

		case msg.Class == ClassExit:
			idx, ok := refs[msg.Tag]
			if !ok {
				// Monitor was cancelled while the EXIT was in flight.
				continue
			}
			delete(refs, msg.Tag)
			_, reason, err := DecodeExit(msg)
			if err != nil {
				c.Logger().Errorf("supervisor %d: bad exit message: %v", c.ID(), err)
				continue
			}
			child := &children[idx]
			child.id = 0
			child.ref = 0

			if !superviseShouldRestart(child.spec.Restart, reason) {
				continue
			}

			now := c.Now()
			restarts = append(restarts, now)
			restarts = prunePriorWindow(restarts, now, spec.RestartPeriod)
			if len(restarts) > spec.MaxRestarts {
				c.Logger().Warnf("supervisor %d: restart intensity exceeded (%d in %v), escalating",
					c.ID(), len(restarts), spec.RestartPeriod)
				superviseStopChildren(c, children, refs)
				if spec.OnShutdown != nil {
					spec.OnShutdown()
				}
				// Returning without Exit makes the supervisor's own death
				// a CRASH, visible to whoever links or monitors it.
				return
			}

			id, ref, err := superviseStart(c, child.spec)
			if err != nil {
				c.Logger().Errorf("supervisor %d: restart child %q: %v", c.ID(), child.spec.Name, err)
				superviseStopChildren(c, children, refs)
				return
			}
			c.Logger().Infof("supervisor %d: restarted child %q as actor %d", c.ID(), child.spec.Name, id)
			child.id = id
			child.ref = ref
			refs[ref] = idx

		default:
			c.Logger().Debugf("supervisor %d: ignoring %s from %d", c.ID(), msg.Class, msg.Sender)
		}
	}
}

func superviseStart(c *Context, ch ChildSpec) (ActorID, Tag, error) {
	cfg := ch.Config
	if cfg.Name == "" {
		cfg.Name = ch.Name
	}
	if cfg.Name != "" {
		cfg.Register = true
	}
	id, err := c.Spawn(ch.Entry, ch.Args, cfg)
	if err != nil {
		return 0, 0, err
	}
	ref, err := c.Monitor(id)
	if err != nil {
		if kerr := c.Kill(id); kerr != nil {
			c.Logger().Errorf("supervisor %d: kill unmonitored child %d: %v", c.ID(), id, kerr)
		}
		return 0, 0, err
	}
	return id, ref, nil
}

func superviseShouldRestart(policy RestartPolicy, reason ExitReason) bool {
	switch policy {
	case RestartPermanent:
		return true
	case RestartTransient:
		return reason.Abnormal()
	default:
		return false
	}
}

// superviseStopChildren demonitors and kills every child that is still
// alive. Kill on an already-dead id is expected when the EXIT for it is
// still queued, so ErrDead is swallowed.
func superviseStopChildren(c *Context, children []supChild, refs map[Tag]int) {
	for i := range children {
		child := &children[i]
		if child.id == 0 {
			continue
		}
		if err := c.Demonitor(child.ref); err != nil {
			c.Logger().Debugf("supervisor %d: demonitor child %d: %v", c.ID(), child.id, err)
		}
		delete(refs, child.ref)
		if err := c.Kill(child.id); err != nil && !errors.Is(err, errors.ErrDead) {
			c.Logger().Errorf("supervisor %d: kill child %d: %v", c.ID(), child.id, err)
		}
		child.id = 0
		child.ref = 0
	}
}

func prunePriorWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	if window <= 0 {
		return times
	}
	cutoff := now.Add(-window)
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
