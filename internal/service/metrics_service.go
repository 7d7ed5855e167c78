package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	blacklistChecks *prometheus.CounterVec
	uploadsTotal    prometheus.Counter
	uploadBytes     prometheus.Counter
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

	blacklistChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blacklist_checks_total",
		Help: "Total blacklist lookups by outcome",
	}, []string{"outcome"})

	uploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photo_uploads_total",
		Help: "Total accepted photo uploads",
	})

	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photo_upload_bytes_total",
		Help: "Total bytes of accepted photo uploads",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		blacklistChecks,
		uploadsTotal,
		uploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		blacklistChecks: blacklistChecks,
		uploadsTotal:    uploadsTotal,
		uploadBytes:     uploadBytes,
	}
}

// Handler returns the Prometheus scrape handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records a finished HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveBlacklistCheck records a blacklist lookup outcome ("hit" or "miss").
func (s *MetricsService) ObserveBlacklistCheck(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	s.blacklistChecks.WithLabelValues(outcome).Inc()
}

// ObserveUpload records an accepted photo upload.
func (s *MetricsService) ObserveUpload(sizeBytes int64) {
	s.uploadsTotal.Inc()
	s.uploadBytes.Add(float64(sizeBytes))
}
