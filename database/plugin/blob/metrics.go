// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamePrefix = "database_blob_"

// Metrics counts blob operations and bytes moved for one backend
type Metrics struct {
	ops   *prometheus.CounterVec
	bytes *prometheus.CounterVec
}

// NewMetrics registers the blob counters with registry. Counters already
// registered by another store are reused. A nil registry gives a Metrics
// whose methods do nothing.
func NewMetrics(registry prometheus.Registerer, backend string) *Metrics {
	if registry == nil {
		return nil
	}
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "ops_total",
			Help: "Total number of blob operations",
		},
		[]string{"backend", "op"},
	)
	bytes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "bytes_total",
			Help: "Total bytes read/written for blob operations",
		},
		[]string{"backend", "op"},
	)
	m := &Metrics{
		ops:   registerOrExisting(registry, ops),
		bytes: registerOrExisting(registry, bytes),
	}
	// Pre-create series so they are exported before the first operation
	for _, op := range []string{"get", "set", "delete", "keys"} {
		m.ops.WithLabelValues(backend, op)
		m.bytes.WithLabelValues(backend, op)
	}
	return m
}

func registerOrExisting(
	registry prometheus.Registerer,
	c *prometheus.CounterVec,
) *prometheus.CounterVec {
	if err := registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Observe records one operation moving n bytes
func (m *Metrics) Observe(backend, op string, n int) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(backend, op).Inc()
	if n > 0 {
		m.bytes.WithLabelValues(backend, op).Add(float64(n))
	}
}
