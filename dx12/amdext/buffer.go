// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package amdext

import (
	"unsafe"

	"github.com/gpuanalyzer/rga/core/fault"
)

const ErrNegativeLength = fault.Const("Buffer length must not be negative")

// Allocator accounts for the memory of buffers used by two phase driver
// queries.
type Allocator interface {
	Acquire(bytes int) error
	Release(bytes int)
}

// HeapAllocator allocates from the Go heap without any accounting.
type HeapAllocator struct{}

// Acquire always succeeds.
func (HeapAllocator) Acquire(int) error { return nil }

// Release does nothing.
func (HeapAllocator) Release(int) {}

// Buffer is a scoped array handed to the driver. It must be released exactly
// once; further calls to Release are ignored.
type Buffer[T any] struct {
	items    []T
	bytes    int
	alloc    Allocator
	released bool
}

// Alloc acquires a buffer of n items from a.
func Alloc[T any](a Allocator, n int) (*Buffer[T], error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if a == nil {
		a = HeapAllocator{}
	}
	var zero T
	bytes := n * int(unsafe.Sizeof(zero))
	if err := a.Acquire(bytes); err != nil {
		return nil, err
	}
	return &Buffer[T]{items: make([]T, n), bytes: bytes, alloc: a}, nil
}

// Items returns the backing slice, or nil once released.
func (b *Buffer[T]) Items() []T {
	if b == nil || b.released {
		return nil
	}
	return b.items
}

// Len returns the number of items in the buffer.
func (b *Buffer[T]) Len() int { return len(b.Items()) }

// Truncate shrinks the visible length to n, keeping the accounted size.
func (b *Buffer[T]) Truncate(n int) {
	if b == nil || b.released || n < 0 || n >= len(b.items) {
		return
	}
	b.items = b.items[:n]
}

// Release returns the buffer's memory to its allocator.
func (b *Buffer[T]) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.items = nil
	b.alloc.Release(b.bytes)
}
