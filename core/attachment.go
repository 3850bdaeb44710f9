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
	"fmt"

	log "github.com/sirupsen/logrus"

	sb "github.com/TimeWtr/ShareBuf"
	"github.com/TimeWtr/ShareBuf/core/component"
	"github.com/TimeWtr/ShareBuf/errorx"
)

// Attachment the binding of one device to one buffer. Both references
// are non-owning: the buffer owns its attachment list, nothing owns the
// device.
type Attachment struct {
	buf  *Buffer
	dev  Device
	priv interface{}
	elem *list.Element
}

// Buffer the attached buffer, nil after Detach.
func (a *Attachment) Buffer() *Buffer {
	return a.buf
}

// Device the consumer this attachment binds.
func (a *Attachment) Device() Device {
	return a.dev
}

// Private device-specific state placed by the exporter's attach hook.
func (a *Attachment) Private() interface{} {
	return a.priv
}

// SetPrivate stores device-specific state, typically called from the
// exporter's attach hook.
func (a *Attachment) SetPrivate(priv interface{}) {
	a.priv = priv
}

// Attach registers a device as a DMA participant on the buffer. The
// exporter's attach hook, when present, runs under the buffer's
// structural lock before list insertion; a hook failure aborts the call
// and frees the partial attachment.
func (b *Buffer) Attach(dev Device) (*Attachment, error) {
	if b == nil || dev == nil {
		return nil, errorx.ErrInvalidArgument
	}

	at := &Attachment{buf: b, dev: dev}

	b.mu.Lock()
	if b.ops.Attach != nil {
		if err := b.ops.Attach(b, dev, at); err != nil {
			b.mu.Unlock()
			b.mc.RecordAttach(false)
			return nil, fmt.Errorf("exporter attach hook for %s: %w", dev.Name(), err)
		}
	}
	at.elem = b.attachments.PushBack(at)
	b.mu.Unlock()

	b.mc.RecordAttach(true)
	return at, nil
}

// Detach removes the attachment from the buffer's list and runs the
// exporter's detach hook, both under the buffer's structural lock. The
// attachment is dead afterwards. Absent arguments are a no-op.
func (b *Buffer) Detach(at *Attachment) {
	if b == nil || at == nil {
		return
	}

	b.mu.Lock()
	if at.elem != nil {
		b.attachments.Remove(at.elem)
		at.elem = nil
	}
	if b.ops.Detach != nil {
		b.ops.Detach(b, at)
	}
	b.mu.Unlock()

	at.buf = nil
	at.dev = nil
	at.priv = nil

	b.mc.RecordDetach()
}

// Map returns the scatter list describing the buffer for this
// attachment's device, valid until the matching Unmap. Delegates to the
// exporter and may block while it performs I/O.
func (a *Attachment) Map(dir sb.Direction) (*component.ScatterList, error) {
	if a == nil || a.buf == nil {
		return nil, errorx.ErrInvalidArgument
	}
	if !dir.Validate() {
		return nil, errorx.ErrInvalidArgument
	}

	sg, err := a.buf.ops.MapDMA(a, dir)
	if err != nil {
		return nil, fmt.Errorf("exporter device map: %w", err)
	}

	a.buf.mc.RecordMap(metricKindDevice)
	return sg, nil
}

// Unmap releases a scatter list obtained from Map. It always succeeds
// from the caller's perspective; an exporter-side failure is logged and
// swallowed because there is no recovery action the caller could take.
func (a *Attachment) Unmap(sg *component.ScatterList, dir sb.Direction) {
	if a == nil || a.buf == nil || sg == nil {
		return
	}

	if err := a.buf.ops.UnmapDMA(a, sg, dir); err != nil {
		log.WithError(err).WithField("device", a.dev.Name()).
			Warn("sharebuf: exporter device unmap failed, ignored")
	}

	a.buf.mc.RecordUnmap(metricKindDevice)
}
