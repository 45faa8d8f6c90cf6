// Copyright 2025 Tom Barlow
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

// Package metrics exposes Prometheus counters and histograms for run, job,
// and step outcomes. These are ambient observability only: nothing in the
// orchestrator's control flow depends on them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_jobs_total",
			Help: "Total jobs reaching a terminal state, by state.",
		},
		[]string{"state"},
	)

	stepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_steps_total",
			Help: "Total steps reaching a terminal state, by state.",
		},
		[]string{"state"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flow_run_duration_seconds",
			Help:    "Wall-clock duration of a completed run.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordJob increments the job outcome counter for the given terminal state.
func RecordJob(state string) {
	jobsTotal.WithLabelValues(state).Inc()
}

// RecordStep increments the step outcome counter for the given terminal state.
func RecordStep(state string) {
	stepsTotal.WithLabelValues(state).Inc()
}

// ObserveRunDuration records the wall-clock duration of a finished run.
func ObserveRunDuration(seconds float64) {
	runDuration.Observe(seconds)
}
