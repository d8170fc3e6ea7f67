// Copyright (c) 2026, Anomalo, Inc.  All rights reserved.
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

package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts task outcomes for one run. Each executor owns its own
// registry so the numbers describe a single collection.
type Metrics struct {
	registry      *prometheus.Registry
	tasksTotal    *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	bytesWritten  prometheus.Counter
	throttleWaits prometheus.Counter
}

// NewMetrics registers the task metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anomalo_diag_tasks_total",
				Help: "Total number of artifact tasks by outcome",
			},
			[]string{"status"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "anomalo_diag_task_duration_seconds",
				Help:    "Artifact task latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		bytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "anomalo_diag_bytes_written_total",
				Help: "Total number of artifact bytes written to the output directory",
			},
		),
		throttleWaits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "anomalo_diag_throttle_waits_total",
				Help: "Total number of tasks delayed by the request pacer",
			},
		),
	}
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
