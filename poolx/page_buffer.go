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

// Package poolx supplies a reference exporter backed by anonymous
// page-aligned memory. The core deliberately owns no allocation policy;
// PageBuffer is one concrete policy consumers and tests can use.
package poolx

import (
	"errors"
	"fmt"
	"unsafe"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/core"
	"github.com/TimeWtr/ShareBuf/core/component"
	"golang.org/x/sys/unix"
)

// PageBuffer a physically contiguous (from the consumer's point of view)
// run of pages obtained from an anonymous mapping. It implements the
// full exporter capability table including the optional linear map.
type PageBuffer struct {
	mem    []byte
	pages  uint64
	mapper memoryMapper
}

func NewPageBuffer(size uint64) (*PageBuffer, error) {
	if size == 0 || size%sb.PageSize != 0 {
		return nil, fmt.Errorf("size %d is not a whole number of pages", size)
	}

	mapper := &unixMemoryMapper{}
	mem, err := mapper.Mmap(-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("anonymous mapping of %d bytes: %w", size, err)
	}

	return &PageBuffer{
		mem:    mem,
		pages:  size >> sb.PageShift,
		mapper: mapper,
	}, nil
}

// Export wraps the page buffer in a buffer object and returns its handle.
func (p *PageBuffer) Export(opts ...core.Options) (*core.Handle, error) {
	return core.Export(p, p.Ops(), uint64(len(p.mem)), opts...)
}

// Ops the exporter capability table over this page buffer.
func (p *PageBuffer) Ops() core.Ops {
	return core.Ops{
		MapDMA:        p.mapDMA,
		UnmapDMA:      p.unmapDMA,
		Release:       p.release,
		MapPage:       p.mapPage,
		MapPageAtomic: p.mapPage,
		MapRegion:     p.mapRegion,
		MapLinear:     p.mapLinear,
		UnmapLinear:   p.unmapLinear,
	}
}

// Bytes the raw backing memory, valid until the buffer is released.
func (p *PageBuffer) Bytes() []byte {
	return p.mem
}

// Sync flushes the mapping synchronously.
func (p *PageBuffer) Sync() error {
	return p.mapper.Sync(p.mem, unix.MS_SYNC)
}

// Advise passes a memory-usage hint for the backing pages to the kernel.
func (p *PageBuffer) Advise(advice int) error {
	return p.mapper.Advise(p.mem, advice)
}

func (p *PageBuffer) mapDMA(_ *core.Attachment, _ sb.Direction) (*component.ScatterList, error) {
	if p.mem == nil {
		return nil, errors.New("page buffer already released")
	}

	// One anonymous mapping is one contiguous span.
	return &component.ScatterList{
		Entries: []component.ScatterEntry{{
			Addr:   uintptr(unsafe.Pointer(&p.mem[0])),
			Length: uint64(len(p.mem)),
		}},
	}, nil
}

func (p *PageBuffer) unmapDMA(_ *core.Attachment, _ *component.ScatterList, _ sb.Direction) error {
	return nil
}

func (p *PageBuffer) release(_ *core.Buffer) {
	if p.mem == nil {
		return
	}
	_ = p.mapper.Munmap(p.mem)
	p.mem = nil
}

func (p *PageBuffer) mapPage(_ *core.Buffer, page uint64) unsafe.Pointer {
	if page >= p.pages {
		return nil
	}
	return unsafe.Pointer(&p.mem[page<<sb.PageShift])
}

func (p *PageBuffer) mapRegion(_ *core.Buffer, region *core.Region) error {
	offset := region.PageOffset << sb.PageShift
	region.Addr = unsafe.Pointer(&p.mem[offset])
	return nil
}

func (p *PageBuffer) mapLinear(_ *core.Buffer) (unsafe.Pointer, error) {
	if p.mem == nil {
		return nil, errors.New("page buffer already released")
	}
	return unsafe.Pointer(&p.mem[0]), nil
}

func (p *PageBuffer) unmapLinear(_ *core.Buffer, _ unsafe.Pointer) {}
