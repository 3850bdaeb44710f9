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
	"errors"
	"runtime"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// DefaultFenceTag the purpose tag used when a fence request does not
// name one. A single GPU-style user bracketing DMA work is the expected
// consumer of the fence interface.
const DefaultFenceTag = "3D"

// SyncContext the internal state behind one armed fence: which buffer,
// which access type, and whether the reservation lock is currently held
// through it. Consumers never see the context directly, only the opaque
// token stored in their Fence request.
type SyncContext struct {
	tag    string
	buf    *Buffer
	access sb.AccessType
	locked bool
}

func newSyncContext(tag string) *SyncContext {
	if tag == "" {
		tag = DefaultFenceTag
	}
	return &SyncContext{tag: tag}
}

// get registers the intended access on a buffer. A context that already
// holds a registration must not be reused for a second concurrent one;
// that is detected, not silently upgraded.
func (s *SyncContext) get(buf *Buffer, access sb.AccessType) error {
	if buf == nil || !access.Validate() {
		return errorx.ErrInvalidArgument
	}
	if s.buf != nil {
		return errorx.ErrBusy
	}

	s.buf = buf
	s.access = access
	return nil
}

// lock tries to take the reservation for the registered access without
// blocking, with a short retry path before giving up. Contention
// surfaces as ErrBusy, the caller's retry signal.
func (s *SyncContext) lock() error {
	const maxRetry = 3
	for i := 0; i < maxRetry; i++ {
		err := s.buf.resv.Lock(context.Background(), s.access, false)
		if err == nil {
			s.locked = true
			return nil
		}
		if !errors.Is(err, errorx.ErrWouldBlock) {
			return err
		}

		if i < maxRetry-1 {
			runtime.Gosched()
		}
	}

	return errorx.ErrBusy
}

// unlock releases the reservation held through this context. A context
// that never locked has nothing to release, that is a protocol
// violation by the consumer.
func (s *SyncContext) unlock() error {
	if !s.locked {
		return errorx.ErrInvalidState
	}

	s.buf.resv.Unlock()
	s.locked = false
	return nil
}

// put retires the context.
func (s *SyncContext) put() {
	s.buf = nil
	s.access = 0
}
