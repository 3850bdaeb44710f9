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
	"context"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// Info the answer to a GetInfo control request.
type Info struct {
	// Size the buffer's byte size.
	Size uint64
	// FenceSupported whether the buffer carries a reservation object and
	// therefore supports the fence and advisory-lock interfaces.
	FenceSupported bool
}

// GetInfo reports the buffer's size and synchronization capability.
func (h *Handle) GetInfo() Info {
	return Info{
		Size:           h.buf.size,
		FenceSupported: h.buf.resv != nil,
	}
}

// Fence a consumer-held fence request. Access names the intended access
// type; Ctx carries the opaque context token between AcquireFence and
// ReleaseFence and must be zero on acquire. Tag optionally names the
// purpose, defaulting to DefaultFenceTag.
type Fence struct {
	Ctx    uint64
	Access sb.AccessType
	Tag    string
}

// AcquireFence brackets the begin of a DMA sequence: it arms a sync
// context for the requested access, takes the reservation lock without
// blocking and stores the opaque token in f.Ctx. A request whose token
// is already non-zero is active and fails with ErrBusy, as does a
// contended lock. Buffers without a reservation fail with
// ErrPermissionDenied.
func (h *Handle) AcquireFence(f *Fence) error {
	if h.buf.resv == nil {
		return errorx.ErrPermissionDenied
	}
	if f == nil {
		return errorx.ErrInvalidArgument
	}
	if f.Ctx != 0 {
		return errorx.ErrBusy
	}

	sc := newSyncContext(f.Tag)
	if err := sc.get(h.buf, f.Access); err != nil {
		return err
	}
	if err := sc.lock(); err != nil {
		sc.put()
		return err
	}

	token := h.nextToken.Add(1)
	h.fenceMu.Lock()
	h.fences[token] = sc
	h.fenceMu.Unlock()

	f.Ctx = token
	h.buf.mc.RecordFence(true)

	return nil
}

// ReleaseFence ends the bracketed sequence: it unlocks the reservation
// through the token's sync context and retires both. A zero or unknown
// token was never armed and fails with ErrInvalidState.
func (h *Handle) ReleaseFence(f *Fence) error {
	if h.buf.resv == nil {
		return errorx.ErrPermissionDenied
	}
	if f == nil || f.Ctx == 0 {
		return errorx.ErrInvalidState
	}

	h.fenceMu.Lock()
	sc, ok := h.fences[f.Ctx]
	if ok {
		delete(h.fences, f.Ctx)
	}
	h.fenceMu.Unlock()

	if !ok {
		return errorx.ErrInvalidState
	}

	if err := sc.unlock(); err != nil {
		return err
	}
	sc.put()

	f.Ctx = 0
	h.buf.mc.RecordFence(false)

	return nil
}

// AdvisoryLock the advisory file-lock style interface. LockUnlock always
// succeeds and releases whichever lock the caller holds; LockWrite maps
// to the exclusive lock, LockRead to the shared one. With nonBlocking
// set an unavailable lock fails with ErrWouldBlock instead of waiting.
func (h *Handle) AdvisoryLock(ctx context.Context, typ sb.LockType, nonBlocking bool) error {
	if h.buf.resv == nil {
		return errorx.ErrPermissionDenied
	}
	if !typ.Validate() {
		return errorx.ErrInvalidArgument
	}

	if typ == sb.LockUnlock {
		h.buf.resv.Unlock()
		return nil
	}

	return h.buf.resv.Lock(ctx, typ.Access(), !nonBlocking)
}

// Poll the readiness interface on an open handle. Buffers without a
// reservation report PollError unconditionally.
func (h *Handle) Poll() (PollResult, <-chan struct{}) {
	if h.buf.resv == nil {
		return PollError, nil
	}
	return h.buf.resv.Poll()
}
