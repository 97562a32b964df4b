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

// Package pool provides a fixed-capacity slab allocator addressed by small
// integer indices. Slots are never reallocated, so no reference ever dangles;
// exhaustion is reported to the caller instead of growing the backing store.
package pool

// Nil is the index returned when the slab has no free slot.
const Nil int32 = -1

// Slab is a fixed-capacity container of T. Slots are handed out by index and
// recycled through an internal free list. It is not safe for concurrent use;
// the runtime is single-threaded by construction.
type Slab[T any] struct {
	slots []T
	free  []int32
	used  int
}

// NewSlab creates a slab holding at most capacity items.
func NewSlab[T any](capacity int) *Slab[T] {
	if capacity < 0 {
		capacity = 0
	}
	s := &Slab[T]{
		slots: make([]T, capacity),
		free:  make([]int32, 0, capacity),
	}
	// LIFO free list: lower indices are handed out first
	for i := capacity - 1; i >= 0; i-- {
		s.free = append(s.free, int32(i))
	}
	return s
}

// Get reserves a free slot and returns its index and a pointer to it.
// It returns Nil and false when the slab is exhausted.
func (s *Slab[T]) Get() (int32, *T, bool) {
	if len(s.free) == 0 {
		return Nil, nil, false
	}
	idx := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.used++
	return idx, &s.slots[idx], true
}

// Put releases a slot back to the free list. The slot content is reset to the
// zero value so the next Get starts clean.
func (s *Slab[T]) Put(idx int32) {
	var zero T
	s.slots[idx] = zero
	s.free = append(s.free, idx)
	s.used--
}

// At returns a pointer to the slot at idx. The caller must only pass indices
// obtained from Get and not yet released.
func (s *Slab[T]) At(idx int32) *T {
	return &s.slots[idx]
}

// Used returns the number of reserved slots.
func (s *Slab[T]) Used() int {
	return s.used
}

// Cap returns the slab capacity.
func (s *Slab[T]) Cap() int {
	return len(s.slots)
}
