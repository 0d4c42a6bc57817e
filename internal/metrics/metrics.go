// Package metrics exposes Prometheus collectors describing workflow runs.
// Collectors are created per instance and registered on a caller-supplied
// registry, so several apps in one process (as in tests) do not collide.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gridflow"

// Outcome labels used by task metrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// Metrics groups every collector the engine reports to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	taskDuration *prometheus.HistogramVec
	tasksTotal   *prometheus.CounterVec
	tasksRunning *prometheus.GaugeVec
	runDuration  *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Histogram of task execution duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"phase", "outcome"},
		),
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Total number of tasks by phase and outcome",
			},
			[]string{"phase", "outcome"}, // outcome: succeeded, failed, canceled
		),
		tasksRunning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_running",
				Help:      "Number of tasks currently executing",
			},
			[]string{"phase"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Histogram of whole workflow run duration in seconds",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900, 3600},
			},
			[]string{"status"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of workflow runs",
			},
			[]string{"status"}, // status: success, failure
		),
	}

	for _, c := range []prometheus.Collector{m.taskDuration, m.tasksTotal, m.tasksRunning, m.runDuration, m.runsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TaskStarted records a task entering the running state.
func (m *Metrics) TaskStarted(phase string) {
	if m == nil {
		return
	}
	m.tasksRunning.WithLabelValues(phase).Inc()
}

// TaskFinished records a task that ran, with its outcome and duration.
func (m *Metrics) TaskFinished(phase, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksRunning.WithLabelValues(phase).Dec()
	m.taskDuration.WithLabelValues(phase, outcome).Observe(d.Seconds())
	m.tasksTotal.WithLabelValues(phase, outcome).Inc()
}

// TaskCanceled records a task skipped because a prerequisite did not succeed.
func (m *Metrics) TaskCanceled(phase string) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(phase, OutcomeCanceled).Inc()
}

// RunFinished records a complete run.
func (m *Metrics) RunFinished(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
	m.runsTotal.WithLabelValues(status).Inc()
}
