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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveRequest_IncrementsCounterAndHistogram(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("ReadProperty", "success", 0.01)

	got, err := m.RequestsTotal.GetMetricWithLabelValues("ReadProperty", "success")
	require.NoError(t, err)
	require.Equal(t, float64(1), counterValue(t, got))
}

func TestObserveCOV_IncrementsByObjectType(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCOV("analog-input")
	m.ObserveCOV("analog-input")

	got, err := m.COVNotifications.GetMetricWithLabelValues("analog-input")
	require.NoError(t, err)
	require.Equal(t, float64(2), counterValue(t, got))
}

func TestAddDatalinkBytes_AddsToDirectionCounter(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddDatalinkBytes("tx", 128)
	m.AddDatalinkBytes("tx", 32)

	got, err := m.DatalinkBytes.GetMetricWithLabelValues("tx")
	require.NoError(t, err)
	require.Equal(t, float64(160), counterValue(t, got))
}

func TestNilMetrics_MethodsAreNoOps(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("x", "y", 1)
		m.ObserveCOV("z")
		m.AddDatalinkBytes("rx", 1)
	})
}
