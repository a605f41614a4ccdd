// Package metrics holds the Prometheus instrumentation for the prediction
// pipeline.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PredictionsTotal  prometheus.Counter
	RequestFailures   *prometheus.CounterVec
	ReportsPersisted  prometheus.Counter
	DeliveryOutcomes  *prometheus.CounterVec
	AuditEntriesTotal prometheus.Counter
	PipelineDuration  prometheus.Histogram
}

// New creates and registers all metrics on a fresh registry, so tests can
// construct multiple instances without duplicate-registration panics.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medicare_predictions_total",
			Help: "Total number of successful predictions produced.",
		}),
		RequestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medicare_request_failures_total",
			Help: "Hard request failures by kind (validation, model, persistence).",
		}, []string{"kind"}),
		ReportsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "medicare_reports_persisted_total",
			Help: "Reports written to the local delivery store.",
		}),
		DeliveryOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medicare_delivery_outcomes_total",
			Help: "Delivery outcomes by status and failure reason.",
		}, []string{"status", "reason"}),
		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "medicare_audit_entries_total",
			Help: "Audit entries enqueued for background recording.",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medicare_pipeline_duration_seconds",
			Help:    "End-to-end prediction pipeline latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return m, reg
}

// Handler returns an echo handler serving the registry in Prometheus text
// exposition format.
func Handler(reg *prometheus.Registry) echo.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
