package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Claim outcome labels recorded by ObserveClaim.
const (
	ClaimOutcomeBooked      = "booked"
	ClaimOutcomeSlotGone    = "slot_gone"
	ClaimOutcomeSlotInvalid = "slot_invalid"
	ClaimOutcomeError       = "error"
)

// MetricsService encapsulates Prometheus instrumentation for the booking API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	claimTotal      *prometheus.CounterVec
	cancelTotal     prometheus.Counter
	slotsGenerated  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	claimTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_claims_total",
		Help: "Slot claim attempts by outcome",
	}, []string{"outcome"})

	cancelTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_cancellations_total",
		Help: "Total successful booking cancellations",
	})

	slotsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_slots_generated_total",
		Help: "Total availability slots minted by the generator",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, claimTotal, cancelTotal, slotsGenerated, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		claimTotal:      claimTotal,
		cancelTotal:     cancelTotal,
		slotsGenerated:  slotsGenerated,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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
}

// ObserveClaim records a claim attempt outcome.
func (m *MetricsService) ObserveClaim(outcome string) {
	if m == nil {
		return
	}
	m.claimTotal.WithLabelValues(outcome).Inc()
}

// ObserveCancellation records a successful cancellation.
func (m *MetricsService) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancelTotal.Inc()
}

// AddSlotsGenerated records slots minted by a generation run.
func (m *MetricsService) AddSlotsGenerated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.slotsGenerated.Add(float64(count))
}

// RecordCacheLookup records a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
