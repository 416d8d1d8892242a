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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry, "test")
	require.NotNil(t, m)
	m.Observe("test", "set", 10)
	m.Observe("test", "set", 5)
	m.Observe("test", "delete", 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ops.WithLabelValues("test", "set")), 0)
	assert.InDelta(t, 15, testutil.ToFloat64(m.bytes.WithLabelValues("test", "set")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ops.WithLabelValues("test", "delete")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.bytes.WithLabelValues("test", "delete")), 0)
}

func TestMetricsShareRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m1 := NewMetrics(registry, "one")
	m2 := NewMetrics(registry, "two")
	assert.Same(t, m1.ops, m2.ops)
	m2.Observe("two", "get", 3)
	assert.InDelta(t, 1, testutil.ToFloat64(m1.ops.WithLabelValues("two", "get")), 0)
}

func TestMetricsNilRegistry(t *testing.T) {
	m := NewMetrics(nil, "none")
	assert.Nil(t, m)
	// Observe on a nil Metrics is a no-op
	m.Observe("none", "get", 1)
}
