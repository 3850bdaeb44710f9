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
	"unsafe"

	log "github.com/sirupsen/logrus"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// Mapping kinds reported to the metrics collector.
const (
	metricKindDevice = "device"
	metricKindPage   = "page"
	metricKindLinear = "linear"
	metricKindRegion = "region"
)

// BeginCPUAccess must be called before any CPU-side read or write of the
// byte range to establish coherency. The hook is optional; without it
// the call succeeds trivially.
func (b *Buffer) BeginCPUAccess(start, length uint64, dir sb.Direction) error {
	if b == nil {
		return errorx.ErrInvalidArgument
	}
	if b.ops.BeginCPUAccess == nil {
		return nil
	}
	return b.ops.BeginCPUAccess(b, start, length, dir)
}

// EndCPUAccess mirrors BeginCPUAccess and always succeeds from the
// caller's perspective. An exporter-side failure is logged and swallowed.
func (b *Buffer) EndCPUAccess(start, length uint64, dir sb.Direction) {
	if b == nil || b.ops.EndCPUAccess == nil {
		return
	}
	if err := b.ops.EndCPUAccess(b, start, length, dir); err != nil {
		log.WithError(err).Warn("sharebuf: exporter end-cpu-access failed, ignored")
	}
}

// MapPage maps one page of the buffer and returns its local address.
// Must always succeed; preparations that can fail belong in
// BeginCPUAccess. Pairs with UnmapPage.
func (b *Buffer) MapPage(page uint64) unsafe.Pointer {
	addr := b.ops.MapPage(b, page)
	b.mc.RecordMap(metricKindPage)
	return addr
}

// UnmapPage releases a page mapping obtained from MapPage.
func (b *Buffer) UnmapPage(page uint64, addr unsafe.Pointer) {
	if b.ops.UnmapPage != nil {
		b.ops.UnmapPage(b, page, addr)
	}
	b.mc.RecordUnmap(metricKindPage)
}

// MapPageAtomic the MapPage variant for contexts that must not suspend.
func (b *Buffer) MapPageAtomic(page uint64) unsafe.Pointer {
	addr := b.ops.MapPageAtomic(b, page)
	b.mc.RecordMap(metricKindPage)
	return addr
}

// UnmapPageAtomic releases a mapping obtained from MapPageAtomic.
func (b *Buffer) UnmapPageAtomic(page uint64, addr unsafe.Pointer) {
	if b.ops.UnmapPageAtomic != nil {
		b.ops.UnmapPageAtomic(b, page, addr)
	}
	b.mc.RecordUnmap(metricKindPage)
}

// MapLinear maps the whole buffer linearly and returns the address, or
// nil when the exporter does not support linear mappings. The first
// caller pays for the underlying mapping; concurrent callers share the
// cached address through a reference count guarded by the buffer's
// structural lock.
func (b *Buffer) MapLinear() unsafe.Pointer {
	if b == nil || b.ops.MapLinear == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.linearCount > 0 {
		if b.linearAddr == nil {
			panic("sharebuf: linear mapping counted but no cached address")
		}
		b.linearCount++
		b.mc.RecordLinear(true)
		return b.linearAddr
	}

	if b.linearAddr != nil {
		panic("sharebuf: stale linear mapping address with zero count")
	}

	addr, err := b.ops.MapLinear(b)
	if err != nil || addr == nil {
		if err != nil {
			log.WithError(err).Warn("sharebuf: exporter linear map failed")
		}
		return nil
	}

	b.linearAddr = addr
	b.linearCount = 1
	b.mc.RecordLinear(false)
	b.mc.RecordMap(metricKindLinear)

	return addr
}

// UnmapLinear drops one reference on the cached linear mapping; the last
// unmap runs the exporter's unmap hook and clears the cache. Unmapping
// with a zero count or with an address that is not the cached one is an
// irrecoverable invariant violation.
func (b *Buffer) UnmapLinear(addr unsafe.Pointer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.linearAddr == nil || b.linearCount == 0 {
		panic("sharebuf: linear unmap without a live mapping")
	}
	if b.linearAddr != addr {
		panic("sharebuf: linear unmap address does not match the cached mapping")
	}

	b.linearCount--
	if b.linearCount == 0 {
		if b.ops.UnmapLinear != nil {
			b.ops.UnmapLinear(b, addr)
		}
		b.linearAddr = nil
		b.mc.RecordUnmap(metricKindLinear)
	}
}

// Region a target window in a consumer's address space, the analog of a
// memory-map target. MapInto rebinds it to the buffer; Close drops the
// binding.
type Region struct {
	// Length the window size in bytes, a whole number of pages.
	Length uint64
	// PageOffset the buffer page the window starts at, set by MapInto.
	PageOffset uint64
	// Addr the mapped address, filled by the exporter's MapRegion hook.
	Addr unsafe.Pointer

	backing *Handle
}

// Backing the handle this region is bound to, nil before MapInto.
func (r *Region) Backing() *Handle {
	return r.backing
}

// Close releases the region's handle reference.
func (r *Region) Close() {
	if r.backing != nil {
		r.backing.Release()
		r.backing = nil
	}
}

// MapInto maps [pageOffset, pageOffset+pages) of the buffer into the
// target region. The page range is validated twice: first that it does
// not wrap, then that it stays within the buffer. On success the region
// is rebound to the buffer's handle and the exporter performs the
// actual mapping.
func (b *Buffer) MapInto(region *Region, pageOffset uint64) error {
	if b == nil || region == nil {
		return errorx.ErrInvalidArgument
	}
	if region.Length == 0 || region.Length%sb.PageSize != 0 {
		return fmt.Errorf("region length %d is not a whole number of pages: %w",
			region.Length, errorx.ErrInvalidArgument)
	}

	pages := region.Length >> sb.PageShift

	// check for offset overflow
	if pageOffset+pages < pageOffset {
		return errorx.ErrOverflow
	}
	// check for overflowing the buffer's size
	if pageOffset+pages > b.Pages() {
		return fmt.Errorf("page range [%d, %d) exceeds buffer of %d pages: %w",
			pageOffset, pageOffset+pages, b.Pages(), errorx.ErrInvalidArgument)
	}

	// rebind the region to this buffer
	old := region.backing
	region.backing = b.handle.mustRef()
	region.PageOffset = pageOffset
	if old != nil {
		old.Release()
	}

	if err := b.ops.MapRegion(b, region); err != nil {
		return fmt.Errorf("exporter region map: %w", err)
	}

	b.mc.RecordMap(metricKindRegion)
	return nil
}
