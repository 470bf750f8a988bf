// Copyright 2025 Edgeo SCADA
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

// Package metrics wires this stack's request/TSM/COV/datalink counters to
// Prometheus collectors, replacing the hand-rolled Counter/Gauge/
// LatencyHistogram types the rest of the pack built by hand.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector this stack reports. Its methods are
// nil-safe, so a nil *Metrics reports nothing. Construct one with New; the
// bacudp datalink accepts it through bacudp.WithMetrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TSMRetries       prometheus.Counter
	TSMTimeouts      prometheus.Counter
	TSMActive        prometheus.Gauge
	COVNotifications *prometheus.CounterVec
	DatalinkBytes    *prometheus.CounterVec
}

// New registers this stack's collectors against reg and returns the
// resulting Metrics. Pass prometheus.NewRegistry() for an isolated
// registry in tests, or prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bacnet",
			Name:      "requests_total",
			Help:      "Confirmed service requests handled, by service and outcome.",
		}, []string{"service", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bacnet",
			Name:      "request_duration_seconds",
			Help:      "Confirmed service request handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		TSMRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bacnet",
			Name:      "tsm_retries_total",
			Help:      "Confirmed request retransmissions issued by the transaction state machine.",
		}),
		TSMTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bacnet",
			Name:      "tsm_timeouts_total",
			Help:      "Transactions abandoned after exhausting their retry budget.",
		}),
		TSMActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bacnet",
			Name:      "tsm_active_transactions",
			Help:      "Transactions currently tracked by the transaction state machine.",
		}),
		COVNotifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bacnet",
			Name:      "cov_notifications_total",
			Help:      "Change-of-value notifications generated, by object type.",
		}, []string{"object_type"}),
		DatalinkBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bacnet",
			Name:      "datalink_bytes_total",
			Help:      "Bytes moved across a datalink, by direction.",
		}, []string{"direction"}),
	}
}

// ObserveRequest records one confirmed-service outcome and its latency.
func (m *Metrics) ObserveRequest(service, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(service, outcome).Inc()
	m.RequestDuration.WithLabelValues(service).Observe(seconds)
}

// ObserveCOV records one COV notification for objType.
func (m *Metrics) ObserveCOV(objType string) {
	if m == nil {
		return
	}
	m.COVNotifications.WithLabelValues(objType).Inc()
}

// AddDatalinkBytes records n bytes moved in the given direction ("rx" or "tx").
func (m *Metrics) AddDatalinkBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.DatalinkBytes.WithLabelValues(direction).Add(float64(n))
}
