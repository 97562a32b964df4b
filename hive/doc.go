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

// Package hive implements a cooperative, priority-scheduled actor runtime.
//
// A Runtime owns a fixed-capacity actor table, a first-fit stack arena for
// actor workspaces, a mailbox pool, a publish/subscribe bus table, a timer
// pool, and link/monitor pools. Exactly one actor executes at any instant:
// control moves between the scheduler and actor code only at explicit yield
// points (Yield, blocking receive, bus reads, Sleep, Select, AwaitIO), never
// by preemption. A busy actor that never reaches a yield point starves every
// other actor; that trade-off is part of the model, not a defect.
//
// All resource pools are sized once at construction. Exhaustion is reported
// synchronously as errors.ErrNoMemory and is never retried or queued inside
// the runtime; callers apply their own backoff and resend.
package hive
