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
	"encoding/binary"
	"fmt"

	"github.com/hivekit/hive/errors"
)

const (
	arenaAlign = 8
	guardSize  = 8
	// guardWord brackets every workspace; corruption is checked at each
	// schedule boundary and at death.
	guardWord uint64 = 0xA55A_DEAD_BEEF_5AA5
)

// arenaBlock describes one region of the arena, kept sorted by offset.
type arenaBlock struct {
	off  int
	size int
	free bool
}

// stackArena is a first-fit free-list allocator over a byte region sized once
// at construction. Freed blocks coalesce with free neighbors. Exhaustion is a
// normal condition reported to the caller; the arena never grows.
type stackArena struct {
	mem    []byte
	blocks []arenaBlock
}

func newStackArena(size int) *stackArena {
	size = alignUp(size)
	return &stackArena{
		mem:    make([]byte, size),
		blocks: []arenaBlock{{off: 0, size: size, free: true}},
	}
}

func alignUp(n int) int {
	return (n + arenaAlign - 1) &^ (arenaAlign - 1)
}

// alloc reserves size bytes with first-fit scanning and returns the region
// offset. The chosen block is split when the remainder is large enough to be
// useful.
func (sa *stackArena) alloc(size int) (int, error) {
	size = alignUp(size)
	if size <= 0 {
		return 0, fmt.Errorf("arena alloc %d: %w", size, errors.ErrInvalidArgument)
	}
	for i := range sa.blocks {
		if !sa.blocks[i].free || sa.blocks[i].size < size {
			continue
		}
		// appending can reallocate the slice, so mutate through the index
		// only, never a pointer taken before the insertion
		if remainder := sa.blocks[i].size - size; remainder >= arenaAlign {
			rest := arenaBlock{off: sa.blocks[i].off + size, size: remainder, free: true}
			sa.blocks[i].size = size
			sa.blocks = append(sa.blocks, arenaBlock{})
			copy(sa.blocks[i+2:], sa.blocks[i+1:])
			sa.blocks[i+1] = rest
		}
		sa.blocks[i].free = false
		return sa.blocks[i].off, nil
	}
	return 0, fmt.Errorf("arena alloc %d: %w", size, errors.ErrNoMemory)
}

// release returns the block at off to the free list and coalesces it with
// free neighbors.
func (sa *stackArena) release(off int) {
	idx := -1
	for i := range sa.blocks {
		if sa.blocks[i].off == off && !sa.blocks[i].free {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	sa.blocks[idx].free = true

	// merge with the following block first so idx stays valid
	if next := idx + 1; next < len(sa.blocks) && sa.blocks[next].free {
		sa.blocks[idx].size += sa.blocks[next].size
		sa.blocks = append(sa.blocks[:next], sa.blocks[next+1:]...)
	}
	if prev := idx - 1; prev >= 0 && sa.blocks[prev].free {
		sa.blocks[prev].size += sa.blocks[idx].size
		sa.blocks = append(sa.blocks[:idx], sa.blocks[idx+1:]...)
	}
}

// region returns the byte slice backing the block at off.
func (sa *stackArena) region(off int) []byte {
	for i := range sa.blocks {
		if sa.blocks[i].off == off {
			return sa.mem[off : off+sa.blocks[i].size]
		}
	}
	return nil
}

func (sa *stackArena) freeBytes() int {
	total := 0
	for i := range sa.blocks {
		if sa.blocks[i].free {
			total += sa.blocks[i].size
		}
	}
	return total
}

// writeGuards brackets the usable region of backing with guard words and
// returns the inner workspace slice.
func writeGuards(backing []byte) []byte {
	binary.LittleEndian.PutUint64(backing[:guardSize], guardWord)
	binary.LittleEndian.PutUint64(backing[len(backing)-guardSize:], guardWord)
	return backing[guardSize : len(backing)-guardSize]
}

// guardsIntact reports whether both guard words still hold their pattern.
func guardsIntact(backing []byte) bool {
	if len(backing) < 2*guardSize {
		return false
	}
	lo := binary.LittleEndian.Uint64(backing[:guardSize])
	hi := binary.LittleEndian.Uint64(backing[len(backing)-guardSize:])
	return lo == guardWord && hi == guardWord
}
