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

package component

// ScatterEntry one physically contiguous span of a buffer as seen by a
// specific device.
type ScatterEntry struct {
	// Addr the device-visible start address of the span.
	Addr uintptr
	// Length the span length in bytes.
	Length uint64
}

// ScatterList an opaque description of a buffer's physical layout,
// produced by an exporter's device-map hook and valid until the matching
// unmap. The core never interprets the entries.
type ScatterList struct {
	Entries []ScatterEntry
}

// Size the total byte length covered by the list.
func (s *ScatterList) Size() uint64 {
	var total uint64
	for _, e := range s.Entries {
		total += e.Length
	}
	return total
}

func (s *ScatterList) Empty() bool {
	return s == nil || len(s.Entries) == 0
}
