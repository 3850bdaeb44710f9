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
	"container/list"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/core/component"
	metrics2 "github.com/TimeWtr/ShareBuf/core/metrics"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// Device identifies a DMA-capable consumer attaching to a buffer. The
// core never drives the device, the name is used for diagnostics only.
type Device interface {
	Name() string
}

// Ops the exporter's capability table for one buffer. The mandatory
// subset (device map/unmap, release, page map in both flavors, process
// region map) is validated at export time; every other field is an
// optional capability queried by nil-ness.
type Ops struct {
	// Attach device-specific attach hook, may reject the device.
	Attach func(buf *Buffer, dev Device, at *Attachment) error
	// Detach device-specific teardown for an attachment.
	Detach func(buf *Buffer, at *Attachment)

	// MapDMA produces the scatter list for one attachment. May block
	// while the exporter performs I/O.
	MapDMA func(at *Attachment, dir sb.Direction) (*component.ScatterList, error)
	// UnmapDMA releases a scatter list. A failure here is logged by the
	// core and never surfaced, there is no recovery for the caller.
	UnmapDMA func(at *Attachment, sg *component.ScatterList, dir sb.Direction) error
	// Release frees the exporter's backing state, called exactly once
	// when the last handle reference drops.
	Release func(buf *Buffer)

	// BeginCPUAccess establishes coherency for a CPU access to the given
	// byte range.
	BeginCPUAccess func(buf *Buffer, start, length uint64, dir sb.Direction) error
	// EndCPUAccess mirrors BeginCPUAccess, failures are logged and ignored.
	EndCPUAccess func(buf *Buffer, start, length uint64, dir sb.Direction) error

	// MapPage maps one page into the caller's address space. Must always
	// succeed, preparations that can fail belong in BeginCPUAccess.
	MapPage func(buf *Buffer, page uint64) unsafe.Pointer
	// MapPageAtomic is the variant for contexts that must not suspend.
	MapPageAtomic func(buf *Buffer, page uint64) unsafe.Pointer
	// UnmapPage releases a page mapping obtained from MapPage.
	UnmapPage func(buf *Buffer, page uint64, addr unsafe.Pointer)
	// UnmapPageAtomic releases a mapping obtained from MapPageAtomic.
	UnmapPageAtomic func(buf *Buffer, page uint64, addr unsafe.Pointer)

	// MapRegion backs a process-visible region with the buffer.
	MapRegion func(buf *Buffer, region *Region) error

	// MapLinear maps the whole buffer linearly. Expensive, the core
	// caches the result and reference-counts callers.
	MapLinear func(buf *Buffer) (unsafe.Pointer, error)
	// UnmapLinear tears the linear mapping down on the last unmap.
	UnmapLinear func(buf *Buffer, addr unsafe.Pointer)
}

func (o *Ops) validate() error {
	required := []struct {
		name    string
		present bool
	}{
		{"MapDMA", o.MapDMA != nil},
		{"UnmapDMA", o.UnmapDMA != nil},
		{"Release", o.Release != nil},
		{"MapPage", o.MapPage != nil},
		{"MapPageAtomic", o.MapPageAtomic != nil},
		{"MapRegion", o.MapRegion != nil},
	}
	for _, op := range required {
		if !op.present {
			return fmt.Errorf("missing mandatory operation %s: %w",
				op.name, errorx.ErrInvalidArgument)
		}
	}
	return nil
}

// Buffer a shared, size-bounded memory region plus its capability table.
// The backing memory belongs to the exporter, the buffer owns only the
// coordination state: attachment list, linear-mapping cache and the
// reservation object. All structural mutations happen under mu; the
// reservation has its own lock and the two are never held together.
type Buffer struct {
	// size the byte size, immutable after export.
	size uint64
	// priv opaque private data owned by the exporter.
	priv interface{}
	// ops the exporter's capability table.
	ops Ops
	// mu structural lock guarding attachments and the linear-map cache.
	mu sync.Mutex
	// attachments the active device attachments.
	attachments *list.List
	// linearAddr cached address of the linear mapping, nil when unmapped.
	linearAddr unsafe.Pointer
	// linearCount reference count of the cached linear mapping.
	linearCount int
	// resv the reservation object, nil when exported without one.
	resv *Reservation
	// handle non-owning back reference to the exclusive export handle.
	handle *Handle
	// mc batch metrics collector.
	mc metrics2.BatchCollector
	// enableMetrics whether metric export is switched on.
	enableMetrics bool
	// noReservation set by the export option, skips reservation init.
	noReservation bool
}

// Options functional configuration applied at export time.
type Options func(buffer *Buffer) error

// WithMetrics enables metric collection and selects the collector type.
func WithMetrics(collector sb.CollectorType) Options {
	return func(buffer *Buffer) error {
		if !collector.Validate() {
			return errors.New("invalid metrics collector")
		}

		buffer.enableMetrics = true
		switch collector {
		case sb.PrometheusCollector:
			p := metrics2.NewPrometheus()
			p.CollectSwitcher(true)
			buffer.mc = metrics2.NewBatchCollector(p)
		case sb.OpenTelemetryCollector:
		}

		return nil
	}
}

// WithoutReservation exports the buffer without a reservation object.
// Fence, advisory lock and poll requests on such a buffer fail with
// ErrPermissionDenied and GetInfo reports FenceSupported false.
func WithoutReservation() Options {
	return func(buffer *Buffer) error {
		buffer.noReservation = true
		return nil
	}
}

// Export creates a buffer object around the exporter's private data and
// capability table and returns its owning handle. The handle starts with
// a single reference; releasing the last reference destroys the buffer.
func Export(priv interface{}, ops Ops, size uint64, opts ...Options) (*Handle, error) {
	if priv == nil {
		return nil, fmt.Errorf("missing exporter private data: %w", errorx.ErrInvalidArgument)
	}
	if size == 0 {
		return nil, fmt.Errorf("zero-sized buffer: %w", errorx.ErrInvalidArgument)
	}
	if err := ops.validate(); err != nil {
		return nil, err
	}

	b := &Buffer{
		size:        size,
		priv:        priv,
		ops:         ops,
		attachments: list.New(),
		mc:          metrics2.NewBatchCollector(metrics2.NewPrometheus()),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	if !b.noReservation {
		b.resv = newReservation(b)
	}

	h := newHandle(b)
	b.handle = h

	b.mc.Start()
	b.mc.RecordExport()

	return h, nil
}

// Size the byte size of the buffer, fixed for its lifetime.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Pages the buffer size in whole pages.
func (b *Buffer) Pages() uint64 {
	return b.size >> sb.PageShift
}

// Private the exporter's opaque private data.
func (b *Buffer) Private() interface{} {
	return b.priv
}

// Reservation the buffer's synchronization object, nil when the buffer
// was exported without one.
func (b *Buffer) Reservation() *Reservation {
	return b.resv
}

// Handle the exclusive export handle wrapping this buffer.
func (b *Buffer) Handle() *Handle {
	return b.handle
}

// NumAttachments the number of devices currently attached.
func (b *Buffer) NumAttachments() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attachments.Len()
}
