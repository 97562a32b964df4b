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

// A fiber is the context-switch primitive: a strict channel handoff between
// the scheduler goroutine and one parked actor goroutine. The scheduler and
// the actor are never runnable at the same time, which is what makes the
// runtime single-threaded without locks.

type fiberSignal int8

const (
	signalRun fiberSignal = iota
	signalKill
)

type fiber struct {
	resume chan fiberSignal
	park   chan struct{}
}

func newFiber() *fiber {
	return &fiber{
		resume: make(chan fiberSignal),
		park:   make(chan struct{}),
	}
}

// exitPanic unwinds an actor goroutine on Context.Exit.
type exitPanic struct{}

// killPanic unwinds an actor goroutine when the scheduler destroys it.
type killPanic struct{}

// start launches the actor goroutine. It parks immediately and runs the entry
// function only after the scheduler's first resume.
func (f *fiber) start(a *actor, ctx *Context) {
	go func() {
		defer func() {
			switch r := recover(); r.(type) {
			case nil:
				// returning without Exit is a crash
				a.reason = ReasonCrash
			case exitPanic:
				a.reason = ReasonNormal
			case killPanic:
				a.reason = ReasonKilled
			default:
				a.reason = ReasonCrash
				a.panicv = r
			}
			a.done = true
			f.park <- struct{}{}
		}()
		if sig := <-f.resume; sig == signalKill {
			panic(killPanic{})
		}
		a.entry(ctx)
	}()
}

// yieldToScheduler parks the calling actor until the scheduler resumes it.
// Called only on the actor's own goroutine.
func (f *fiber) yieldToScheduler() {
	f.park <- struct{}{}
	if sig := <-f.resume; sig == signalKill {
		panic(killPanic{})
	}
}

// resumeSlice hands control to the actor until its next yield point or death.
// Called only on the scheduler goroutine.
func (f *fiber) resumeSlice() {
	f.resume <- signalRun
	<-f.park
}

// terminate unwinds a parked actor goroutine. The actor's deferred recovery
// runs and the final park handoff is consumed here.
func (f *fiber) terminate() {
	f.resume <- signalKill
	<-f.park
}
