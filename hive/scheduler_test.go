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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	t.Run("With a single running actor at any instant", func(t *testing.T) {
		rt := newTestRuntime(t)
		running := 0
		var maxRunning int
		for i := 0; i < 5; i++ {
			_, err := rt.Spawn(func(c *Context) {
				for j := 0; j < 3; j++ {
					running++
					if running > maxRunning {
						maxRunning = running
					}
					running--
					c.Yield()
				}
				c.Exit()
			}, nil, SpawnConfig{Priority: PriorityNormal})
			require.NoError(t, err)
		}
		step(t, rt)
		assert.Equal(t, 1, maxRunning)
	})
	t.Run("With round robin within one priority", func(t *testing.T) {
		rt := newTestRuntime(t)
		var order []ActorID
		var ids []ActorID
		for i := 0; i < 3; i++ {
			id, err := rt.Spawn(func(c *Context) {
				for j := 0; j < 3; j++ {
					order = append(order, c.ID())
					c.Yield()
				}
				c.Exit()
			}, nil, SpawnConfig{Priority: PriorityNormal})
			require.NoError(t, err)
			ids = append(ids, id)
		}
		step(t, rt)
		require.Len(t, order, 9)

		// each of the three runs exactly once before any repeats
		for round := 0; round < 3; round++ {
			seen := map[ActorID]bool{}
			for _, id := range order[round*3 : round*3+3] {
				seen[id] = true
			}
			assert.Len(t, seen, 3, "round %d is not a full rotation: %v", round, order)
		}
		// rotation order is stable across rounds
		for i := 0; i < 6; i++ {
			assert.Equal(t, order[i], order[i+3])
		}
	})
	t.Run("With strict priority across levels", func(t *testing.T) {
		rt := newTestRuntime(t)
		var order []string
		spawnAt := func(name string, p Priority) {
			_, err := rt.Spawn(func(c *Context) {
				for j := 0; j < 2; j++ {
					order = append(order, name)
					c.Yield()
				}
				c.Exit()
			}, nil, SpawnConfig{Name: name, Priority: p})
			require.NoError(t, err)
		}
		spawnAt("low", PriorityLow)
		spawnAt("critical", PriorityCritical)
		spawnAt("normal", PriorityNormal)
		spawnAt("high", PriorityHigh)

		step(t, rt)
		assert.Equal(t, []string{
			"critical", "critical", "high", "high", "normal", "normal", "low", "low",
		}, order)
	})
	t.Run("With intentional starvation by a busy actor", func(t *testing.T) {
		rt := newTestRuntime(t)
		var order []string
		_, err := rt.Spawn(func(c *Context) {
			// long busy run with explicit yields; the LOW actor must not
			// run until this one exits
			for j := 0; j < 50; j++ {
				order = append(order, "busy")
				c.Yield()
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			order = append(order, "starved")
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityLow})
		require.NoError(t, err)

		step(t, rt)
		require.Len(t, order, 51)
		assert.Equal(t, "starved", order[50])
	})
	t.Run("With kill taking effect at the next scheduling decision", func(t *testing.T) {
		rt := newTestRuntime(t)
		victimRan := false
		victim, err := rt.Spawn(func(c *Context) {
			victimRan = true
			for {
				c.Yield()
			}
		}, nil, SpawnConfig{Priority: PriorityLow})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			assert.NoError(t, c.Kill(victim))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		// the killer runs first by priority, so the victim is destroyed
		// before its first slice
		live := step(t, rt)
		assert.False(t, live)
		assert.False(t, victimRan)
		assert.False(t, rt.Alive(victim))
	})
	t.Run("With crash classification on plain return", func(t *testing.T) {
		rt := newTestRuntime(t)
		var reason ExitReason
		target, err := rt.Spawn(func(c *Context) {
			// returning without Exit is a crash
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			ref, err := c.Monitor(target)
			assert.NoError(t, err)
			msg, err := c.RecvMatch(Filter{Class: ClassExit, Tag: ref}, -1)
			if assert.NoError(t, err) {
				_, reason, err = DecodeExit(msg)
				assert.NoError(t, err)
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityCritical})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, ReasonCrash, reason)
	})
	t.Run("With panic classified as crash", func(t *testing.T) {
		rt := newTestRuntime(t)
		var reason ExitReason
		target, err := rt.Spawn(func(c *Context) {
			panic("boom")
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			ref, err := c.Monitor(target)
			assert.NoError(t, err)
			msg, err := c.RecvMatch(Filter{Class: ClassExit, Tag: ref}, -1)
			if assert.NoError(t, err) {
				_, reason, err = DecodeExit(msg)
				assert.NoError(t, err)
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityCritical})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, ReasonCrash, reason)
	})
	t.Run("With stack guard corruption detected at the schedule boundary", func(t *testing.T) {
		rt := newTestRuntime(t)
		var reason ExitReason
		target, err := rt.Spawn(func(c *Context) {
			ws := c.Workspace()
			// write one byte past the workspace into the guard region
			bad := ws[:len(ws)+1]
			bad[len(ws)] = 0xFF
			c.Yield()
			c.Exit()
		}, nil, SpawnConfig{StackSize: 64, Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			ref, err := c.Monitor(target)
			assert.NoError(t, err)
			msg, err := c.RecvMatch(Filter{Class: ClassExit, Tag: ref}, -1)
			if assert.NoError(t, err) {
				_, reason, err = DecodeExit(msg)
				assert.NoError(t, err)
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityCritical})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, ReasonCrashStack, reason)
		assert.False(t, rt.Alive(target))
	})
}
