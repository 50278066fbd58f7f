// internal/metrics/metrics.go

// Package metrics exposes prometheus collectors for calls made to the embedding,
// completion and vector index services, plus the pipeline counters.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

const namespace = "tariffadvisor"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors and the private registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	calls          *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	chunksUpserted prometheus.Counter
	batchesWritten prometheus.Counter
	answers        *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_calls_total",
			Help:      "Calls made to external services by service, operation and outcome.",
		}, []string{"service", "op", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_call_duration_seconds",
			Help:      "Latency of calls made to external services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "op"}),
		chunksUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_upserted_total",
			Help:      "Records written to the vector index.",
		}),
		batchesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upsert_batches_total",
			Help:      "Upsert batches acknowledged by the vector index.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer requests by failing stage, or ok.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.calls,
		m.callDuration,
		m.chunksUpserted,
		m.batchesWritten,
		m.answers,
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one external call that started at start.
func (m *Metrics) ObserveCall(service, op string, start time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.calls.WithLabelValues(service, op, outcome).Inc()
	m.callDuration.WithLabelValues(service, op).Observe(time.Since(start).Seconds())
}

// AddUpserted counts records and batches written by one Upsert call.
func (m *Metrics) AddUpserted(records, batches int) {
	m.chunksUpserted.Add(float64(records))
	m.batchesWritten.Add(float64(batches))
}

// ObserveAnswer counts an answer request under the stage that failed, or "ok".
func (m *Metrics) ObserveAnswer(err error) {
	stage := OutcomeOK
	if err != nil {
		stage = OutcomeError
		var ae *domain.AnswerError
		if errors.As(err, &ae) && ae.Stage != "" {
			stage = ae.Stage
		}
	}
	m.answers.WithLabelValues(stage).Inc()
}
