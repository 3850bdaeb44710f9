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
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mc       *Prometheus
	registry *prometheus.Registry // Indicator registry
	once     sync.Once
)

// GetHandler Return HTTP handler for docking with various frameworks
func GetHandler() http.Handler {
	return promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

var _ Collector = (*Prometheus)(nil)

type Prometheus struct {
	enabled         bool                   // Whether to enable indicator collection
	exportsTotal    prometheus.Counter     // The total number of exported buffers
	releasesTotal   prometheus.Counter     // The total number of final releases
	attachCounter   *prometheus.CounterVec // Attach results by outcome
	detachTotal     prometheus.Counter     // The total number of detaches
	mapCounter      *prometheus.CounterVec // Map operations by kind
	unmapCounter    *prometheus.CounterVec // Unmap operations by kind
	linearCacheHits prometheus.Counter     // Linear-map requests served from cache
	linearMappings  prometheus.Counter     // Linear mappings actually performed
	lockCounter     *prometheus.CounterVec // Lock requests by outcome
	lockWaitLatency prometheus.Histogram   // Wait latency of granted locks
	unlocksTotal    prometheus.Counter     // The total number of unlocks
	pollCounter     *prometheus.CounterVec // Poll results by outcome
	fenceCounter    *prometheus.CounterVec // Fence operations by phase
}

// NewPrometheus returns the process-wide Prometheus collector. Buffers
// share one registry, repeated calls return the same instance.
func NewPrometheus() *Prometheus {
	once.Do(func() {
		mc = &Prometheus{}
		registry = prometheus.NewRegistry()
		mc.register()
	})
	return mc
}

func (p *Prometheus) register() *Prometheus {
	const namespace = "sharebuf"
	p.exportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Number of buffer objects exported.",
	})
	registry.MustRegister(p.exportsTotal)

	p.releasesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "releases_total",
		Help:      "Number of buffer objects destroyed on last release.",
	})
	registry.MustRegister(p.releasesTotal)

	p.attachCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attach_counts_total",
		Help:      "Number of device attach calls.",
	}, []string{"result"})
	registry.MustRegister(p.attachCounter)

	p.detachTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detach_counts_total",
		Help:      "Number of device detaches.",
	})
	registry.MustRegister(p.detachTotal)

	p.mapCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "map_counts_total",
		Help:      "Number of map operations.",
	}, []string{"kind"})
	registry.MustRegister(p.mapCounter)

	p.unmapCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unmap_counts_total",
		Help:      "Number of unmap operations.",
	}, []string{"kind"})
	registry.MustRegister(p.unmapCounter)

	p.linearCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "linear_cache_hits_total",
		Help:      "Number of linear-map requests served from the cache.",
	})
	registry.MustRegister(p.linearCacheHits)

	p.linearMappings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "linear_mappings_total",
		Help:      "Number of linear mappings performed by exporters.",
	})
	registry.MustRegister(p.linearMappings)

	p.lockCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lock_counts_total",
		Help:      "Number of reservation lock requests.",
	}, []string{"result"})
	registry.MustRegister(p.lockCounter)

	p.lockWaitLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_wait_latency",
		Help:      "Wait latency of granted reservation locks.",
	})
	registry.MustRegister(p.lockWaitLatency)

	p.unlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlock_counts_total",
		Help:      "Number of reservation unlocks.",
	})
	registry.MustRegister(p.unlocksTotal)

	p.pollCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_counts_total",
		Help:      "Number of readiness polls.",
	}, []string{"result"})
	registry.MustRegister(p.pollCounter)

	p.fenceCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fence_counts_total",
		Help:      "Number of fence operations.",
	}, []string{"phase"})
	registry.MustRegister(p.fenceCounter)

	return p
}

func (p *Prometheus) CollectSwitcher(enable bool) {
	p.enabled = enable
}

func (p *Prometheus) ObserveLifecycle(exports, releases float64) {
	if !p.enabled {
		return
	}

	p.exportsTotal.Add(exports)
	p.releasesTotal.Add(releases)
}

func (p *Prometheus) ObserveAttach(attaches, detaches, errors float64) {
	if !p.enabled {
		return
	}

	p.attachCounter.With(prometheus.Labels{"result": "success"}).Add(attaches)
	p.attachCounter.With(prometheus.Labels{"result": "failure"}).Add(errors)
	p.detachTotal.Add(detaches)
}

func (p *Prometheus) ObserveMap(kind string, maps, unmaps float64) {
	if !p.enabled {
		return
	}

	p.mapCounter.With(prometheus.Labels{"kind": kind}).Add(maps)
	p.unmapCounter.With(prometheus.Labels{"kind": kind}).Add(unmaps)
}

func (p *Prometheus) ObserveLinearCache(hits, mappings float64) {
	if !p.enabled {
		return
	}

	p.linearCacheHits.Add(hits)
	p.linearMappings.Add(mappings)
}

func (p *Prometheus) ObserveLock(grants, contended, waitMillis float64) {
	if !p.enabled {
		return
	}

	p.lockCounter.With(prometheus.Labels{"result": "granted"}).Add(grants)
	p.lockCounter.With(prometheus.Labels{"result": "contended"}).Add(contended)
	if grants > 0 {
		p.lockWaitLatency.Observe(waitMillis)
	}
}

func (p *Prometheus) ObserveUnlock(counts float64) {
	if !p.enabled {
		return
	}

	p.unlocksTotal.Add(counts)
}

func (p *Prometheus) ObservePoll(ready, blocked, errors float64) {
	if !p.enabled {
		return
	}

	p.pollCounter.With(prometheus.Labels{"result": "ready"}).Add(ready)
	p.pollCounter.With(prometheus.Labels{"result": "blocked"}).Add(blocked)
	p.pollCounter.With(prometheus.Labels{"result": "error"}).Add(errors)
}

func (p *Prometheus) ObserveFence(acquires, releases float64) {
	if !p.enabled {
		return
	}

	p.fenceCounter.With(prometheus.Labels{"phase": "acquire"}).Add(acquires)
	p.fenceCounter.With(prometheus.Labels{"phase": "release"}).Add(releases)
}
