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

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "gindexer_"

type indexerMetrics struct {
	eventsApplied       *prometheus.CounterVec
	eventErrors         *prometheus.CounterVec
	transactionsApplied prometheus.Counter
	transactionsSkipped prometheus.Counter
	transactionsAborted prometheus.Counter
	applyDuration       prometheus.Histogram
	pollerLastSlot      prometheus.Gauge
}

func (m *indexerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.eventsApplied = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "events_applied_total",
			Help: "total number of change events applied to the store",
		},
		[]string{"kind"},
	)
	m.eventErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "event_errors_total",
			Help: "total number of change events that could not be applied",
		},
		[]string{"kind"},
	)
	m.transactionsApplied = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "transactions_applied_total",
			Help: "total number of transactions applied",
		},
	)
	m.transactionsSkipped = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "transactions_skipped_total",
			Help: "total number of failed transactions skipped",
		},
	)
	m.transactionsAborted = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: metricNamePrefix + "transactions_aborted_total",
			Help: "total number of transactions whose batch stopped on a store error",
		},
	)
	m.applyDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    metricNamePrefix + "apply_duration_seconds",
			Help:    "time spent applying one transaction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
	)
	m.pollerLastSlot = promautoFactory.NewGauge(
		prometheus.GaugeOpts{
			Name: metricNamePrefix + "poller_last_slot",
			Help: "slot of the last transaction handled by the poller",
		},
	)
}
