package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-engine/internal/engine"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the solver behind it.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveSteps      *prometheus.HistogramVec
	solvesTotal     *prometheus.CounterVec
	validationTotal *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	solveCount           uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall time per timetable solve",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
	}, []string{"outcome"})

	solveSteps := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_steps",
		Help:    "Search steps spent per timetable solve",
		Buckets: prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"outcome"})

	solvesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solves_total",
		Help: "Total timetable solves by outcome",
	}, []string{"outcome"})

	validationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_validations_total",
		Help: "Total feasibility validations by verdict",
	}, []string{"verdict"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveSteps, solvesTotal, validationTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveSteps:      solveSteps,
		solvesTotal:     solvesTotal,
		validationTotal: validationTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSolve records the outcome and cost of one timetable solve.
func (m *MetricsService) ObserveSolve(status engine.Status, stats engine.Stats) {
	if m == nil {
		return
	}
	outcome := string(status)
	m.solveDuration.WithLabelValues(outcome).Observe(stats.Duration.Seconds())
	m.solveSteps.WithLabelValues(outcome).Observe(float64(stats.Steps))
	m.solvesTotal.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.solveCount, 1)
}

// ObserveValidation records one feasibility validation verdict.
func (m *MetricsService) ObserveValidation(feasible bool) {
	if m == nil {
		return
	}
	verdict := "feasible"
	if !feasible {
		verdict = "infeasible"
	}
	m.validationTotal.WithLabelValues(verdict).Inc()
}
