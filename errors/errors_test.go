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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels(t *testing.T) {
	t.Run("With wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("spawn %q: %w", "worker", ErrNoMemory)
		assert.True(t, errors.Is(wrapped, ErrNoMemory))
		assert.False(t, errors.Is(wrapped, ErrInvalidArgument))
	})
	t.Run("With distinct identities", func(t *testing.T) {
		sentinels := []error{
			ErrNoMemory,
			ErrInvalidArgument,
			ErrTimeout,
			ErrClosed,
			ErrWouldBlock,
			ErrIO,
			ErrAlreadyExists,
			ErrDead,
			ErrNotFound,
			ErrDeadlock,
		}
		for i, lhs := range sentinels {
			for j, rhs := range sentinels {
				if i == j {
					continue
				}
				assert.False(t, errors.Is(lhs, rhs), "%v must not match %v", lhs, rhs)
			}
		}
	})
}
