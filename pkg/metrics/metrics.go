/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "planitor"

var (
	TasksScheduledCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "tasks_scheduled",
			Help:      "Number of task instances committed to the schedule. Labeled by discipline.",
		},
		[]string{
			"discipline",
		},
	)
	SchedulingFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "failures",
			Help:      "Number of scheduling runs aborted. Labeled by the reason the run aborted.",
		},
		[]string{
			"reason",
		},
	)
	WindowSearchAttemptsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "window_search_attempts",
			Help:      "Number of window-search attempts needed before a task committed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	ResourceUtilizationGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "resources",
			Name:      "utilization",
			Help:      "Peak concurrent usage over capacity per resource, from the last completed run.",
		},
		[]string{
			"resource",
			"kind",
		},
	)
	ProjectDurationGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "scheduler",
			Name:      "project_duration_days",
			Help:      "Project duration in working days, from the last completed run.",
		},
	)
)

// Registry holds every planitor collector. The CLI serves it; nothing
// registers into the global prometheus registry.
var Registry = prometheus.NewRegistry()

func MustRegister() {
	Registry.MustRegister(
		TasksScheduledCounter,
		SchedulingFailuresCounter,
		WindowSearchAttemptsHistogram,
		ResourceUtilizationGauge,
		ProjectDurationGauge,
	)
}

func init() {
	MustRegister()
}
