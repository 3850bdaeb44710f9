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

// Collector Indicator monitoring interface
//
//go:generate mockgen -destination=./../mocks/metrics/collector_mock.go -package metrics_mocks github.com/TimeWtr/ShareBuf/core/metrics Collector
type Collector interface {
	CollectSwitcher(enable bool) // collector switch
	LifecycleMetrics
	AttachMetrics
	MapMetrics
	LockMetrics
	PollMetrics
	FenceMetrics
}

// LifecycleMetrics Buffer object lifecycle indicators
type LifecycleMetrics interface {
	// ObserveLifecycle Number of exports and final releases
	ObserveLifecycle(exports, releases float64)
}

// AttachMetrics Device attachment indicators
type AttachMetrics interface {
	// ObserveAttach Number of attaches, detaches and attach hook errors
	ObserveAttach(attaches, detaches, errors float64)
}

// MapMetrics Mapping indicators per kind (device, page, linear, region)
type MapMetrics interface {
	// ObserveMap Number of map and unmap operations of one kind
	ObserveMap(kind string, maps, unmaps float64)
	// ObserveLinearCache Cache hits vs actual linear mappings performed
	ObserveLinearCache(hits, mappings float64)
}

// LockMetrics Reservation lock indicators
type LockMetrics interface {
	// ObserveLock Number of granted and contended lock requests plus the
	// wait latency of the last granted one in milliseconds
	ObserveLock(grants, contended, waitMillis float64)
	// ObserveUnlock Number of unlock operations
	ObserveUnlock(counts float64)
}

// PollMetrics Readiness poll indicators
type PollMetrics interface {
	// ObservePoll Number of poll results per outcome
	ObservePoll(ready, blocked, errors float64)
}

// FenceMetrics Fence bracket indicators
type FenceMetrics interface {
	// ObserveFence Number of fence acquires and releases
	ObserveFence(acquires, releases float64)
}
