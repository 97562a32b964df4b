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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivekit/hive/errors"
)

func TestNotifyRecv(t *testing.T) {
	t.Run("With payload round trip and FIFO order", func(t *testing.T) {
		rt := newTestRuntime(t)
		var got []string
		var senderSeen ActorID
		receiver, err := rt.Spawn(func(c *Context) {
			for i := 0; i < 3; i++ {
				msg, err := c.Recv(-1)
				if !assert.NoError(t, err) {
					break
				}
				senderSeen = msg.Sender
				got = append(got, string(msg.Payload))
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		var sender ActorID
		sender, err = rt.Spawn(func(c *Context) {
			for _, s := range []string{"one", "two", "three"} {
				assert.NoError(t, c.Notify(receiver, []byte(s)))
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, []string{"one", "two", "three"}, got)
		assert.Equal(t, sender, senderSeen)
	})
	t.Run("With notify to a dead actor", func(t *testing.T) {
		rt := newTestRuntime(t)
		var sendErr error
		_, err := rt.Spawn(func(c *Context) {
			sendErr = c.Notify(9999, []byte("x"))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		assert.ErrorIs(t, sendErr, errors.ErrDead)
	})
	t.Run("With oversized payload", func(t *testing.T) {
		rt := newTestRuntime(t, WithMaxPayloadSize(16))
		var sendErr error
		target, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			sendErr = c.Notify(target, make([]byte, 17))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		assert.ErrorIs(t, sendErr, errors.ErrInvalidArgument)
	})
	t.Run("With would-block on an empty mailbox", func(t *testing.T) {
		rt := newTestRuntime(t)
		var recvErr error
		_, err := rt.Spawn(func(c *Context) {
			_, recvErr = c.Recv(0)
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		assert.ErrorIs(t, recvErr, errors.ErrWouldBlock)
	})
	t.Run("With bounded receive timing out", func(t *testing.T) {
		rt := newTestRuntime(t)
		var recvErr error
		finished := false
		_, err := rt.Spawn(func(c *Context) {
			_, recvErr = c.Recv(50 * time.Millisecond)
			finished = true
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		step(t, rt)
		require.False(t, finished)

		require.NoError(t, rt.AdvanceTime(60*time.Millisecond))
		step(t, rt)
		require.True(t, finished)
		assert.ErrorIs(t, recvErr, errors.ErrTimeout)
	})
	t.Run("With the deadline timer hidden from a broad filter", func(t *testing.T) {
		rt := newTestRuntime(t)
		var recvErr, afterErr error
		_, err := rt.Spawn(func(c *Context) {
			_, recvErr = c.RecvMatch(MatchAny(), 50*time.Millisecond)
			// the expired deadline must not linger as a TIMER message
			_, afterErr = c.Recv(0)
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		step(t, rt)
		require.NoError(t, rt.AdvanceTime(60*time.Millisecond))
		step(t, rt)
		assert.ErrorIs(t, recvErr, errors.ErrTimeout)
		assert.ErrorIs(t, afterErr, errors.ErrWouldBlock)
	})
}

func TestRecvMatch(t *testing.T) {
	t.Run("With selective receive from the middle", func(t *testing.T) {
		rt := newTestRuntime(t)
		var got []Tag
		receiver, err := rt.Spawn(func(c *Context) {
			// pull tag 2 first, then drain in order
			msg, err := c.RecvMatch(Filter{Sender: AnySender, Class: ClassNotify, Tag: 2}, -1)
			if assert.NoError(t, err) {
				got = append(got, msg.Tag)
			}
			for i := 0; i < 2; i++ {
				msg, err := c.Recv(-1)
				if assert.NoError(t, err) {
					got = append(got, msg.Tag)
				}
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			for _, tag := range []Tag{1, 2, 3} {
				assert.NoError(t, c.NotifyEx(receiver, ClassNotify, tag, nil))
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, []Tag{2, 1, 3}, got)
	})
	t.Run("With earliest match among duplicates", func(t *testing.T) {
		rt := newTestRuntime(t)
		var first string
		receiver, err := rt.Spawn(func(c *Context) {
			msg, err := c.RecvMatch(Filter{Sender: AnySender, Class: ClassNotify, Tag: 7}, -1)
			if assert.NoError(t, err) {
				first = string(msg.Payload)
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			assert.NoError(t, c.NotifyEx(receiver, ClassNotify, 7, []byte("early")))
			assert.NoError(t, c.NotifyEx(receiver, ClassNotify, 7, []byte("late")))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, "early", first)
	})
	t.Run("With no spurious wake on non-matching traffic", func(t *testing.T) {
		rt := newTestRuntime(t)
		woke := false
		receiver, err := rt.Spawn(func(c *Context) {
			_, _ = c.RecvMatch(Filter{Sender: AnySender, Class: ClassNotify, Tag: 42}, -1)
			woke = true
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)

		_, err = rt.Spawn(func(c *Context) {
			assert.NoError(t, c.NotifyEx(receiver, ClassNotify, 1, nil))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		require.False(t, woke)

		_, err = rt.Spawn(func(c *Context) {
			assert.NoError(t, c.NotifyEx(receiver, ClassNotify, 42, nil))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		step(t, rt)
		assert.True(t, woke)
	})
}

func TestRequestReply(t *testing.T) {
	t.Run("With correlated ping pong", func(t *testing.T) {
		rt := newTestRuntime(t)
		var (
			replyPayload string
			replyTag     Tag
			requestTag   Tag
		)
		server, err := rt.Spawn(func(c *Context) {
			msg, err := c.Recv(-1)
			if assert.NoError(t, err) {
				requestTag = msg.Tag
				assert.Equal(t, ClassRequest, msg.Class)
				assert.Equal(t, "ping", string(msg.Payload))
				assert.NoError(t, c.Reply(msg, []byte("pong")))
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			msg, err := c.Request(server, []byte("ping"), -1)
			if assert.NoError(t, err) {
				replyPayload = string(msg.Payload)
				replyTag = msg.Tag
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, "pong", replyPayload)
		assert.Equal(t, requestTag, replyTag)
		assert.True(t, requestTag.RuntimeGenerated())
	})
	t.Run("With two in-flight requests never cross-matched", func(t *testing.T) {
		rt := newTestRuntime(t)
		answers := map[string]string{}

		// the server answers requests in reverse arrival order, so a client
		// waiting on its own tag must skip the other client's reply
		server, err := rt.Spawn(func(c *Context) {
			first, err := c.Recv(-1)
			assert.NoError(t, err)
			second, err := c.Recv(-1)
			assert.NoError(t, err)
			if first != nil && second != nil {
				assert.NoError(t, c.Reply(second, append([]byte("ack:"), second.Payload...)))
				assert.NoError(t, c.Reply(first, append([]byte("ack:"), first.Payload...)))
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityLow})
		require.NoError(t, err)

		client := func(name string) {
			_, err := rt.Spawn(func(c *Context) {
				msg, err := c.Request(server, []byte(name), -1)
				if assert.NoError(t, err) {
					answers[name] = string(msg.Payload)
				}
				c.Exit()
			}, nil, SpawnConfig{Name: name, Priority: PriorityNormal})
			require.NoError(t, err)
		}
		client("a")
		client("b")

		step(t, rt)
		assert.Equal(t, map[string]string{"a": "ack:a", "b": "ack:b"}, answers)
	})
	t.Run("With reply to a non-request", func(t *testing.T) {
		rt := newTestRuntime(t)
		var replyErr error
		receiver, err := rt.Spawn(func(c *Context) {
			msg, err := c.Recv(-1)
			if assert.NoError(t, err) {
				replyErr = c.Reply(msg, nil)
			}
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			assert.NoError(t, c.Notify(receiver, []byte("not a request")))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.ErrorIs(t, replyErr, errors.ErrInvalidArgument)
	})
	t.Run("With request timing out", func(t *testing.T) {
		rt := newTestRuntime(t)
		var reqErr error
		silent, err := rt.Spawn(blockForever, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)
		_, err = rt.Spawn(func(c *Context) {
			_, reqErr = c.Request(silent, []byte("anyone there"), 20*time.Millisecond)
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		step(t, rt)
		require.NoError(t, rt.AdvanceTime(30*time.Millisecond))
		step(t, rt)
		assert.ErrorIs(t, reqErr, errors.ErrTimeout)
	})
}

func TestMailboxExhaustion(t *testing.T) {
	t.Run("With pool of K entries rejecting the K+1th send", func(t *testing.T) {
		const poolSize = 4
		rt := newTestRuntime(t, WithMailboxCapacity(poolSize))

		var (
			firstBatch   int
			overflowErr  error
			retryResults []error
		)

		// the receiver drains exactly one entry out of the pool, pokes the
		// sender, and stays alive so its backlog keeps its pool slots
		receiver, err := rt.Spawn(func(c *Context) {
			msg, err := c.RecvMatch(Filter{Sender: AnySender, Class: ClassNotify, Tag: 3}, -1)
			if !assert.NoError(t, err) {
				c.Exit()
			}
			assert.EqualValues(t, 3, msg.Tag)
			assert.NoError(t, c.NotifyEx(msg.Sender, ClassReply, 0, nil))
			_, err = c.RecvMatch(Filter{Sender: AnySender, Class: ClassNotify, Tag: 100}, -1)
			assert.NoError(t, err)
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityNormal})
		require.NoError(t, err)

		_, err = rt.Spawn(func(c *Context) {
			for tag := Tag(0); tag < poolSize; tag++ {
				if err := c.NotifyEx(receiver, ClassNotify, tag, nil); err == nil {
					firstBatch++
				}
			}
			overflowErr = c.NotifyEx(receiver, ClassNotify, 99, nil)

			// wait for the receiver to drain one entry, then exactly one
			// further send fits
			_, err := c.RecvMatch(Filter{Sender: receiver, Class: ClassReply, Tag: TagAny}, -1)
			assert.NoError(t, err)
			retryResults = append(retryResults,
				c.NotifyEx(receiver, ClassNotify, 100, nil),
				c.NotifyEx(receiver, ClassNotify, 101, nil))
			c.Exit()
		}, nil, SpawnConfig{Priority: PriorityHigh})
		require.NoError(t, err)

		step(t, rt)
		assert.Equal(t, poolSize, firstBatch)
		assert.ErrorIs(t, overflowErr, errors.ErrNoMemory)
		require.Len(t, retryResults, 2)
		assert.NoError(t, retryResults[0])
		assert.ErrorIs(t, retryResults[1], errors.ErrNoMemory)
	})
}
