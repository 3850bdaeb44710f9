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

package sharebuf

const (
	// PageShift the number of bits to shift a byte count to get a page count.
	PageShift = 12
	// PageSize the fixed page granularity of every buffer object.
	PageSize = 1 << PageShift
)

// AccessType describes how a consumer intends to touch a shared buffer.
// Read and Write may be combined with the DMA bit when the access is
// performed by a device instead of the CPU.
type AccessType uint32

const (
	AccessRead  AccessType = 1 << iota // read access
	AccessWrite                        // write access
	AccessDMA                          // access performed by a DMA-capable device
)

// Validate reports whether the access type carries at least one of the
// read/write bits. The DMA bit alone does not describe an access.
func (a AccessType) Validate() bool {
	return a&(AccessRead|AccessWrite) != 0
}

// Exclusive reports whether the access type requires the exclusive lock.
func (a AccessType) Exclusive() bool {
	return a&AccessWrite != 0
}

// Direction the direction of a DMA transfer relative to the device.
type Direction uint8

const (
	DirBidirectional Direction = iota
	DirToDevice
	DirFromDevice
)

func (d Direction) Validate() bool {
	return d <= DirFromDevice
}

func (d Direction) String() string {
	switch d {
	case DirToDevice:
		return "to-device"
	case DirFromDevice:
		return "from-device"
	default:
		return "bidirectional"
	}
}

// LockType an advisory lock request on an open handle. Read maps to the
// shared lock, Write to the exclusive lock, Unlock releases whichever
// lock the caller holds.
type LockType uint8

const (
	LockRead LockType = iota + 1
	LockWrite
	LockUnlock
)

func (l LockType) Validate() bool {
	return l >= LockRead && l <= LockUnlock
}

// Access converts an advisory lock type to the access type the
// reservation object understands.
func (l LockType) Access() AccessType {
	if l == LockWrite {
		return AccessWrite
	}
	return AccessRead
}

// CollectorType the metrics collector implementation to wire in.
type CollectorType uint8

const (
	PrometheusCollector CollectorType = iota + 1
	OpenTelemetryCollector
)

func (c CollectorType) Validate() bool {
	return c == PrometheusCollector || c == OpenTelemetryCollector
}
