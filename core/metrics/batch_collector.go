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

package metrics

import (
	"sync/atomic"
	"time"
)

// Mapping kinds the batch collector accumulates separately.
const (
	KindDevice = "device"
	KindPage   = "page"
	KindLinear = "linear"
	KindRegion = "region"
)

// BatchCollector Collector for reporting indicator data in batches,
// abstracted to provide interface to the caller
type BatchCollector interface {
	Controller
	Recorder
}

// Recorder Interface provided to the caller
type Recorder interface {
	RecordExport()                              // Report a buffer export
	RecordRelease()                             // Report a final buffer release
	RecordAttach(ok bool)                       // Report an attach attempt
	RecordDetach()                              // Report a detach
	RecordMap(kind string)                      // Report a map operation
	RecordUnmap(kind string)                    // Report an unmap operation
	RecordLinear(hit bool)                      // Report a linear-map cache lookup
	RecordLock(granted bool, waitMillis int64)  // Report a lock request
	RecordUnlock()                              // Report an unlock
	RecordPoll(result string)                   // Report a poll outcome
	RecordFence(acquire bool)                   // Report a fence phase
}

// Controller Batch update controller
type Controller interface {
	Start() // Start asynchronous batch update
	Stop()  // Stop asynchronous batch updates
	Flush() // Force immediate batch update
}

// Lifecycle Indicators for buffer lifetime and attachment traffic
type Lifecycle struct {
	exports      int64 // The total number of exports
	releases     int64 // The total number of final releases
	attaches     int64 // The total number of successful attaches
	attachErrors int64 // Attach hook failure count
	detaches     int64 // The total number of detaches
}

func (l *Lifecycle) Reset() {
	atomic.StoreInt64(&l.exports, 0)
	atomic.StoreInt64(&l.releases, 0)
	atomic.StoreInt64(&l.attaches, 0)
	atomic.StoreInt64(&l.attachErrors, 0)
	atomic.StoreInt64(&l.detaches, 0)
}

// Mapping Indicators for map traffic per kind plus the linear cache
type Mapping struct {
	mapDevice   int64
	mapPage     int64
	mapLinear   int64
	mapRegion   int64
	unmapDevice int64
	unmapPage   int64
	unmapLinear int64
	unmapRegion int64
	linearHits  int64 // Linear-map requests served from the cache
	linearMaps  int64 // Linear mappings actually performed
}

func (m *Mapping) Reset() {
	atomic.StoreInt64(&m.mapDevice, 0)
	atomic.StoreInt64(&m.mapPage, 0)
	atomic.StoreInt64(&m.mapLinear, 0)
	atomic.StoreInt64(&m.mapRegion, 0)
	atomic.StoreInt64(&m.unmapDevice, 0)
	atomic.StoreInt64(&m.unmapPage, 0)
	atomic.StoreInt64(&m.unmapLinear, 0)
	atomic.StoreInt64(&m.unmapRegion, 0)
	atomic.StoreInt64(&m.linearHits, 0)
	atomic.StoreInt64(&m.linearMaps, 0)
}

// Sync Indicators for the reservation lock, poll and fence paths
type Sync struct {
	lockGrants    int64 // Granted lock requests
	lockContended int64 // Contended non-blocking lock requests
	lockWait      int64 // Wait latency of the last granted lock, milliseconds
	unlocks       int64 // Unlock operations
	pollReady     int64
	pollBlocked   int64
	pollErrors    int64
	fenceAcquires int64
	fenceReleases int64
}

func (s *Sync) Reset() {
	atomic.StoreInt64(&s.lockGrants, 0)
	atomic.StoreInt64(&s.lockContended, 0)
	atomic.StoreInt64(&s.lockWait, 0)
	atomic.StoreInt64(&s.unlocks, 0)
	atomic.StoreInt64(&s.pollReady, 0)
	atomic.StoreInt64(&s.pollBlocked, 0)
	atomic.StoreInt64(&s.pollErrors, 0)
	atomic.StoreInt64(&s.fenceAcquires, 0)
	atomic.StoreInt64(&s.fenceReleases, 0)
}

var _ Recorder = (*BatchCollectImpl)(nil)

// BatchCollectImpl Batch indicator collector, encapsulates the underlying
// collector, and adds scheduled tasks regularly write indicator data to
// the underlying collector
type BatchCollectImpl struct {
	lc  *Lifecycle    // Lifecycle and attachment indicators
	mp  *Mapping      // Mapping indicators
	sy  *Sync         // Synchronization indicators
	mc  Collector     // Bottom-level indicator collector
	t   *time.Ticker  // timer
	sem chan struct{} // shutdown the timer
}

func NewBatchCollector(mc Collector) *BatchCollectImpl {
	const duration = time.Second * 5
	return &BatchCollectImpl{
		lc:  &Lifecycle{},
		mp:  &Mapping{},
		sy:  &Sync{},
		mc:  mc,
		t:   time.NewTicker(duration),
		sem: make(chan struct{}),
	}
}

func (b *BatchCollectImpl) RecordExport() {
	atomic.AddInt64(&b.lc.exports, 1)
}

func (b *BatchCollectImpl) RecordRelease() {
	atomic.AddInt64(&b.lc.releases, 1)
}

func (b *BatchCollectImpl) RecordAttach(ok bool) {
	if !ok {
		atomic.AddInt64(&b.lc.attachErrors, 1)
		return
	}
	atomic.AddInt64(&b.lc.attaches, 1)
}

func (b *BatchCollectImpl) RecordDetach() {
	atomic.AddInt64(&b.lc.detaches, 1)
}

func (b *BatchCollectImpl) RecordMap(kind string) {
	switch kind {
	case KindDevice:
		atomic.AddInt64(&b.mp.mapDevice, 1)
	case KindPage:
		atomic.AddInt64(&b.mp.mapPage, 1)
	case KindLinear:
		atomic.AddInt64(&b.mp.mapLinear, 1)
	case KindRegion:
		atomic.AddInt64(&b.mp.mapRegion, 1)
	}
}

func (b *BatchCollectImpl) RecordUnmap(kind string) {
	switch kind {
	case KindDevice:
		atomic.AddInt64(&b.mp.unmapDevice, 1)
	case KindPage:
		atomic.AddInt64(&b.mp.unmapPage, 1)
	case KindLinear:
		atomic.AddInt64(&b.mp.unmapLinear, 1)
	case KindRegion:
		atomic.AddInt64(&b.mp.unmapRegion, 1)
	}
}

func (b *BatchCollectImpl) RecordLinear(hit bool) {
	if hit {
		atomic.AddInt64(&b.mp.linearHits, 1)
		return
	}
	atomic.AddInt64(&b.mp.linearMaps, 1)
}

func (b *BatchCollectImpl) RecordLock(granted bool, waitMillis int64) {
	if !granted {
		atomic.AddInt64(&b.sy.lockContended, 1)
		return
	}

	atomic.AddInt64(&b.sy.lockGrants, 1)
	atomic.StoreInt64(&b.sy.lockWait, waitMillis)
}

func (b *BatchCollectImpl) RecordUnlock() {
	atomic.AddInt64(&b.sy.unlocks, 1)
}

func (b *BatchCollectImpl) RecordPoll(result string) {
	switch result {
	case "ready":
		atomic.AddInt64(&b.sy.pollReady, 1)
	case "blocked":
		atomic.AddInt64(&b.sy.pollBlocked, 1)
	default:
		atomic.AddInt64(&b.sy.pollErrors, 1)
	}
}

func (b *BatchCollectImpl) RecordFence(acquire bool) {
	if acquire {
		atomic.AddInt64(&b.sy.fenceAcquires, 1)
		return
	}
	atomic.AddInt64(&b.sy.fenceReleases, 1)
}

func (b *BatchCollectImpl) Start() {
	go b.asyncWorker()
}

func (b *BatchCollectImpl) Stop() {
	close(b.sem)
}

func (b *BatchCollectImpl) Flush() {
	b.report()
}

func (b *BatchCollectImpl) asyncWorker() {
	for {
		select {
		case <-b.sem:
			return
		case <-b.t.C:
			b.report()
		}
	}
}

// report flushes the accumulated indicators once
func (b *BatchCollectImpl) report() {
	b.mc.ObserveLifecycle(float64(atomic.LoadInt64(&b.lc.exports)),
		float64(atomic.LoadInt64(&b.lc.releases)))
	b.mc.ObserveAttach(float64(atomic.LoadInt64(&b.lc.attaches)),
		float64(atomic.LoadInt64(&b.lc.detaches)),
		float64(atomic.LoadInt64(&b.lc.attachErrors)))
	b.lc.Reset()

	b.mc.ObserveMap(KindDevice, float64(atomic.LoadInt64(&b.mp.mapDevice)),
		float64(atomic.LoadInt64(&b.mp.unmapDevice)))
	b.mc.ObserveMap(KindPage, float64(atomic.LoadInt64(&b.mp.mapPage)),
		float64(atomic.LoadInt64(&b.mp.unmapPage)))
	b.mc.ObserveMap(KindLinear, float64(atomic.LoadInt64(&b.mp.mapLinear)),
		float64(atomic.LoadInt64(&b.mp.unmapLinear)))
	b.mc.ObserveMap(KindRegion, float64(atomic.LoadInt64(&b.mp.mapRegion)),
		float64(atomic.LoadInt64(&b.mp.unmapRegion)))
	b.mc.ObserveLinearCache(float64(atomic.LoadInt64(&b.mp.linearHits)),
		float64(atomic.LoadInt64(&b.mp.linearMaps)))
	b.mp.Reset()

	b.mc.ObserveLock(float64(atomic.LoadInt64(&b.sy.lockGrants)),
		float64(atomic.LoadInt64(&b.sy.lockContended)),
		float64(atomic.LoadInt64(&b.sy.lockWait)))
	b.mc.ObserveUnlock(float64(atomic.LoadInt64(&b.sy.unlocks)))
	b.mc.ObservePoll(float64(atomic.LoadInt64(&b.sy.pollReady)),
		float64(atomic.LoadInt64(&b.sy.pollBlocked)),
		float64(atomic.LoadInt64(&b.sy.pollErrors)))
	b.mc.ObserveFence(float64(atomic.LoadInt64(&b.sy.fenceAcquires)),
		float64(atomic.LoadInt64(&b.sy.fenceReleases)))
	b.sy.Reset()
}
