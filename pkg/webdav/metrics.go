/*
 * ocsync, Copyright 2023 ocsync authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package webdav

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the ambient prometheus collectors
// They are incidental to every operation and never change its return
// value.
type metrics struct {
	propfindHits   prometheus.Counter
	propfindMisses prometheus.Counter
	bytesPut       prometheus.Counter
	bytesGet       prometheus.Counter
	requestLatency *prometheus.HistogramVec
	softErrors     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		propfindHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "propfind_cache_hits_total",
			Help:      "PROPFIND results served from the resource cache.",
		}),
		propfindMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "propfind_cache_misses_total",
			Help:      "PROPFIND requests that had to hit the wire.",
		}),
		bytesPut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "bytes_put_total",
			Help:      "Bytes uploaded via PUT.",
		}),
		bytesGet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "bytes_get_total",
			Help:      "Bytes downloaded via GET, post-decompression.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "request_latency_seconds",
			Help:      "HTTP dispatch latency by verb.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		softErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocsync",
			Subsystem: "webdav",
			Name:      "soft_errors_total",
			Help:      "Per-file HTTP failures mapped to a filesystem error kind.",
		}, []string{"kind"}),
	}
	return m
}

// Registry returns the collectors for an external
// prometheus.Registerer to adopt (e.g. an http.Handler exposed by the
// embedding process). The module never registers itself against the
// default registry, since it may be instantiated more than once in a
// test process.
func (m *metrics) Registry() []prometheus.Collector {
	return []prometheus.Collector{
		m.propfindHits, m.propfindMisses, m.bytesPut, m.bytesGet,
		m.requestLatency, m.softErrors,
	}
}

func (m *metrics) propfindCacheHit()  { m.propfindHits.Inc() }
func (m *metrics) propfindCacheMiss() { m.propfindMisses.Inc() }

func (m *metrics) observeLatency(method string, d time.Duration) {
	m.requestLatency.WithLabelValues(method).Observe(d.Seconds())
}

func (m *metrics) recordSoftError(kind Kind) {
	m.softErrors.WithLabelValues(kind.String()).Inc()
}
