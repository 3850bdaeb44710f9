// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/TimeWtr/ShareBuf/errorx"
)

// Handle a reference-counted capability wrapping one buffer object. The
// handle's count is independent of the buffer's internal state, but the
// buffer lives exactly as long as the handle: the last Release runs the
// exporter's release hook and finalizes the reservation.
type Handle struct {
	buf  *Buffer
	refs atomic.Int64

	// fence contexts armed through this handle, keyed by token.
	fenceMu   sync.Mutex
	fences    map[uint64]*SyncContext
	nextToken atomic.Uint64
}

func newHandle(buf *Buffer) *Handle {
	h := &Handle{
		buf:    buf,
		fences: make(map[uint64]*SyncContext),
	}
	h.refs.Store(1)
	return h
}

// Buffer the wrapped buffer object.
func (h *Handle) Buffer() *Buffer {
	return h.buf
}

// Refs the current reference count, primarily for tests and diagnostics.
func (h *Handle) Refs() int64 {
	return h.refs.Load()
}

// tryRef takes a reference unless the count already hit zero. A handle
// at zero is mid-teardown, it must never be resurrected.
func (h *Handle) tryRef() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// mustRef takes a reference from a context that provably holds one
// already, such as a method executing on a live handle.
func (h *Handle) mustRef() *Handle {
	if !h.tryRef() {
		panic("sharebuf: reference to a released handle")
	}
	return h
}

// Release drops one reference. The zero-crossing release destroys the
// buffer: exporter release hook first, reservation finalize second.
// Releasing more times than acquired is a caller bug and panics rather
// than corrupting shared state.
func (h *Handle) Release() {
	n := h.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("sharebuf: handle release without a matching reference")
	}

	h.teardown()
}

func (h *Handle) teardown() {
	b := h.buf

	b.mu.Lock()
	if b.linearCount != 0 {
		b.mu.Unlock()
		panic("sharebuf: buffer released with live linear mappings")
	}
	if b.attachments.Len() != 0 {
		b.mu.Unlock()
		panic("sharebuf: buffer released with live attachments")
	}
	b.mu.Unlock()

	b.ops.Release(b)

	if b.resv != nil {
		b.resv.fini()
	}

	b.mc.RecordRelease()
	b.mc.Flush()
	b.mc.Stop()
}

// DefaultRegistrySlots the reference table size used when NewRegistry is
// given a non-positive limit.
const DefaultRegistrySlots = 1024

// Registry a process-local reference table mapping small numeric
// references to handles, the analog of a descriptor table. It is an
// explicit component: callers own a registry and pass it around, there
// is no hidden process-wide instance.
type Registry struct {
	mu    sync.Mutex
	slots map[int]*Handle
	next  int
	max   int
}

func NewRegistry(maxSlots int) *Registry {
	if maxSlots <= 0 {
		maxSlots = DefaultRegistrySlots
	}
	return &Registry{
		slots: make(map[int]*Handle),
		max:   maxSlots,
	}
}

// Publish installs the handle under a fresh numeric reference, taking
// one reference that the slot owns until Close. Fails with
// ErrResourceExhausted when every slot is taken.
func (r *Registry) Publish(h *Handle) (int, error) {
	if h == nil {
		return 0, errorx.ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.slots) >= r.max {
		return 0, errorx.ErrResourceExhausted
	}
	if !h.tryRef() {
		return 0, errorx.ErrHandleClosed
	}

	for {
		r.next++
		if r.next <= 0 {
			r.next = 1
		}
		if _, taken := r.slots[r.next]; !taken {
			break
		}
	}
	r.slots[r.next] = h

	return r.next, nil
}

// Acquire resolves a reference back to its handle, incrementing the
// reference count. The caller owns the new reference and must Release it.
func (r *Registry) Acquire(ref int) (*Handle, error) {
	if ref <= 0 {
		return nil, errorx.ErrInvalidArgument
	}

	r.mu.Lock()
	h, ok := r.slots[ref]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("reference %d: %w", ref, errorx.ErrNotFound)
	}
	if !h.tryRef() {
		return nil, errorx.ErrHandleClosed
	}

	return h, nil
}

// Close removes the reference and drops the slot's handle reference.
func (r *Registry) Close(ref int) error {
	r.mu.Lock()
	h, ok := r.slots[ref]
	if ok {
		delete(r.slots, ref)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("reference %d: %w", ref, errorx.ErrNotFound)
	}

	h.Release()
	return nil
}

// Len the number of live references.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
