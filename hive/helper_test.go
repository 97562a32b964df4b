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

	"github.com/stretchr/testify/require"
)

// newTestRuntime builds a deterministic runtime: manual event source plus the
// simulated clock, so tests drive everything through Step and AdvanceTime.
func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{WithManualEventSource(), WithSimulatedClock()}
	rt, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rt.Shutdown()
	})
	return rt
}

// step runs the scheduler until no actor is READY and reports whether live
// actors remain.
func step(t *testing.T, rt *Runtime) bool {
	t.Helper()
	live, err := rt.Step()
	require.NoError(t, err)
	return live
}

// blockForever parks an actor on a filter no test traffic ever matches.
func blockForever(c *Context) {
	_, _ = c.RecvMatch(Filter{Sender: AnySender, Class: ClassReply, Tag: 0x7FFF}, -1)
}
