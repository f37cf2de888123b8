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

package fakedriver

import "sync"

// Tracker is an amdext.Allocator that records live buffers.
type Tracker struct {
	// Limit fails any acquisition that would take the live byte count past
	// it. Zero means no limit.
	Limit int

	mutex    sync.Mutex
	live     int
	bytes    int
	peak     int
	acquired int
}

// Acquire implements amdext.Allocator.
func (t *Tracker) Acquire(bytes int) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.Limit > 0 && t.bytes+bytes > t.Limit {
		return ErrOutOfMemory
	}
	t.live++
	t.acquired++
	t.bytes += bytes
	if t.bytes > t.peak {
		t.peak = t.bytes
	}
	return nil
}

// Release implements amdext.Allocator.
func (t *Tracker) Release(bytes int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.live--
	t.bytes -= bytes
}

// Live returns the number of buffers not yet released.
func (t *Tracker) Live() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.live
}

// LiveBytes returns the bytes held by unreleased buffers.
func (t *Tracker) LiveBytes() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.bytes
}

// Acquired returns the total number of buffers handed out.
func (t *Tracker) Acquired() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.acquired
}

// Peak returns the largest number of bytes held at once.
func (t *Tracker) Peak() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.peak
}
