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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivekit/hive/errors"
)

func TestNew(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		rt, err := New()
		require.NoError(t, err)
		require.NotNil(t, rt)
		assert.NotEmpty(t, rt.ID())
		require.NoError(t, rt.Shutdown())
	})
	t.Run("With invalid pool size", func(t *testing.T) {
		rt, err := New(WithMaxActors(0))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Nil(t, rt)
	})
	t.Run("With payload below exit record size", func(t *testing.T) {
		_, err := New(WithMaxPayloadSize(4))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
	t.Run("With nil logger", func(t *testing.T) {
		_, err := New(WithLogger(nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
}

func TestSpawn(t *testing.T) {
	t.Run("With a run-to-exit actor", func(t *testing.T) {
		rt := newTestRuntime(t)
		ran := false
		id, err := rt.Spawn(func(c *Context) {
			ran = true
			c.Exit()
		}, nil, SpawnConfig{Name: "worker", Priority: PriorityNormal})
		require.NoError(t, err)
		require.NotZero(t, id)
		assert.True(t, rt.Alive(id))

		live := step(t, rt)
		assert.True(t, ran)
		assert.False(t, live)
		assert.False(t, rt.Alive(id))
	})
	t.Run("With nil entry", func(t *testing.T) {
		rt := newTestRuntime(t)
		_, err := rt.Spawn(nil, nil, SpawnConfig{Priority: PriorityNormal})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
	t.Run("With invalid priority", func(t *testing.T) {
		rt := newTestRuntime(t)
		_, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: Priority(9)})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
	t.Run("With registration and lookup", func(t *testing.T) {
		rt := newTestRuntime(t)
		id, err := rt.Spawn(blockForever, nil, SpawnConfig{
			Name: "registrar", Priority: PriorityNormal, Register: true,
		})
		require.NoError(t, err)

		got, err := rt.Whereis("registrar")
		require.NoError(t, err)
		assert.Equal(t, id, got)

		_, err = rt.Spawn(blockForever, nil, SpawnConfig{
			Name: "registrar", Priority: PriorityNormal, Register: true,
		})
		assert.ErrorIs(t, err, errors.ErrAlreadyExists)

		_, err = rt.Whereis("nobody")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
	t.Run("With register but no name", func(t *testing.T) {
		rt := newTestRuntime(t)
		_, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal, Register: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
	t.Run("With actor table exhaustion", func(t *testing.T) {
		rt := newTestRuntime(t, WithMaxActors(1))
		_, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoMemory)
	})
	t.Run("With arena exhaustion and direct allocation fallback", func(t *testing.T) {
		rt := newTestRuntime(t, WithArenaSize(512))
		_, err := rt.Spawn(blockForever, nil, SpawnConfig{StackSize: 1024, Priority: PriorityNormal})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoMemory)

		// DirectAlloc bypasses the arena entirely
		_, err = rt.Spawn(blockForever, nil, SpawnConfig{
			StackSize: 1024, Priority: PriorityNormal, DirectAlloc: true,
		})
		require.NoError(t, err)
	})
	t.Run("With workspace sizing and guards", func(t *testing.T) {
		rt := newTestRuntime(t)
		var wsLen int
		_, err := rt.Spawn(func(c *Context) {
			ws := c.Workspace()
			wsLen = len(ws)
			for i := range ws {
				ws[i] = byte(i)
			}
			c.Exit()
		}, nil, SpawnConfig{StackSize: 100, Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		// 100 rounds up to the arena alignment
		assert.Equal(t, 104, wsLen)
	})
	t.Run("With args delivery", func(t *testing.T) {
		rt := newTestRuntime(t)
		var got any
		_, err := rt.Spawn(func(c *Context) {
			got = c.Args()
			c.Exit()
		}, "payload", SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		assert.Equal(t, "payload", got)
	})
	t.Run("With monotonic ids", func(t *testing.T) {
		rt := newTestRuntime(t)
		exit := func(c *Context) { c.Exit() }
		id1, err := rt.Spawn(exit, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		id2, err := rt.Spawn(exit, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		assert.Greater(t, id2, id1)
	})
}

func TestSpawnGroup(t *testing.T) {
	t.Run("With sibling discovery", func(t *testing.T) {
		rt := newTestRuntime(t)
		var seen []Sibling
		ids, err := rt.SpawnGroup([]GroupMember{
			{
				Entry:  func(c *Context) { seen = c.Siblings(); c.Exit() },
				Config: SpawnConfig{Name: "alpha", Priority: PriorityNormal},
			},
			{
				Entry:  func(c *Context) { c.Exit() },
				Config: SpawnConfig{Name: "beta", Priority: PriorityNormal, Register: true},
			},
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		step(t, rt)
		require.Len(t, seen, 2)
		assert.Equal(t, "alpha", seen[0].Name)
		assert.Equal(t, ids[0], seen[0].ID)
		assert.False(t, seen[0].Registered)
		assert.Equal(t, "beta", seen[1].Name)
		assert.Equal(t, ids[1], seen[1].ID)
		assert.True(t, seen[1].Registered)
	})
	t.Run("With rollback on partial failure", func(t *testing.T) {
		rt := newTestRuntime(t)
		ids, err := rt.SpawnGroup([]GroupMember{
			{Entry: blockForever, Config: SpawnConfig{Name: "ok", Priority: PriorityNormal}},
			{Entry: nil, Config: SpawnConfig{Name: "broken", Priority: PriorityNormal}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		assert.Nil(t, ids)
		assert.Zero(t, rt.actors.Used())
	})
	t.Run("With empty member list", func(t *testing.T) {
		rt := newTestRuntime(t)
		_, err := rt.SpawnGroup(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
}

func TestKill(t *testing.T) {
	t.Run("With unknown target", func(t *testing.T) {
		rt := newTestRuntime(t)
		err := rt.Kill(42)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDead)
	})
	t.Run("With waiting target", func(t *testing.T) {
		rt := newTestRuntime(t)
		id, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)

		require.NoError(t, rt.Kill(id))
		live := step(t, rt)
		assert.False(t, live)
		assert.False(t, rt.Alive(id))
	})
	t.Run("With self kill rejected", func(t *testing.T) {
		rt := newTestRuntime(t)
		var selfErr error
		_, err := rt.Spawn(func(c *Context) {
			selfErr = c.Kill(c.ID())
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		require.Error(t, selfErr)
		assert.ErrorIs(t, selfErr, errors.ErrInvalidArgument)
	})
}

func TestRun(t *testing.T) {
	t.Run("With actors running to completion", func(t *testing.T) {
		rt := newTestRuntime(t)
		done := 0
		for i := 0; i < 3; i++ {
			_, err := rt.Spawn(func(c *Context) {
				done++
				c.Exit()
			}, nil, SpawnConfig{Priority: PriorityNormal})
			require.NoError(t, err)
		}
		require.NoError(t, rt.Run(context.Background()))
		assert.Equal(t, 3, done)
	})
	t.Run("With deadlock detection", func(t *testing.T) {
		rt := newTestRuntime(t)
		_, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		err = rt.Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDeadlock)
	})
	t.Run("With context cancellation", func(t *testing.T) {
		rt, err := New(WithPollInterval(time.Millisecond))
		require.NoError(t, err)
		t.Cleanup(func() { _ = rt.Shutdown() })

		// a pending I/O source keeps the loop alive instead of deadlocking
		src, err := rt.NewIOSource("net")
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			_, _ = c.AwaitIO(src, -1)
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		err = rt.Run(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestShutdown(t *testing.T) {
	t.Run("With parked actors", func(t *testing.T) {
		rt, err := New(WithManualEventSource(), WithSimulatedClock())
		require.NoError(t, err)
		for i := 0; i < 4; i++ {
			_, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
			require.NoError(t, err)
		}
		_, err = rt.Step()
		require.NoError(t, err)

		require.NoError(t, rt.Shutdown())
		err = rt.Shutdown()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrClosed)
	})
	t.Run("With operations after shutdown", func(t *testing.T) {
		rt, err := New(WithManualEventSource(), WithSimulatedClock())
		require.NoError(t, err)
		require.NoError(t, rt.Shutdown())

		_, err = rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		assert.ErrorIs(t, err, errors.ErrClosed)
		_, err = rt.Step()
		assert.ErrorIs(t, err, errors.ErrClosed)
		assert.ErrorIs(t, rt.Run(context.Background()), errors.ErrClosed)
	})
}
