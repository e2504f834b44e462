package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes used as the "outcome" label.
const (
	OutcomeApplied   = "applied"
	OutcomeUnchanged = "unchanged"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
)

// Metrics holds the refresh and edit collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	RefreshTotal    *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	ApplyReasons    *prometheus.CounterVec
	PlanTasks       *prometheus.GaugeVec
	EditTotal       *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgantt_refresh_total",
				Help: "Refresh cycles by outcome",
			},
			[]string{"outcome"},
		),
		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pgantt_refresh_duration_seconds",
				Help:    "Duration of a refresh cycle from request to apply",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"outcome"},
		),
		ApplyReasons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgantt_apply_reasons_total",
				Help: "Comparator triggers that caused a snapshot to be applied",
			},
			[]string{"reason"},
		),
		PlanTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pgantt_plan_tasks",
				Help: "Number of tasks in the last applied snapshot",
			},
			[]string{"project"},
		),
		EditTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgantt_edit_total",
				Help: "Edit submissions by operation and status",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordRefresh counts one refresh cycle and its latency.
func (m *Metrics) RecordRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(outcome).Inc()
	m.RefreshDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordApply counts the comparator triggers and tracks the plan size.
func (m *Metrics) RecordApply(project string, tasks int, reasons []string) {
	if m == nil {
		return
	}
	for _, r := range reasons {
		m.ApplyReasons.WithLabelValues(r).Inc()
	}
	m.PlanTasks.WithLabelValues(project).Set(float64(tasks))
}

// RecordEdit counts one edit submission.
func (m *Metrics) RecordEdit(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.EditTotal.WithLabelValues(operation, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
