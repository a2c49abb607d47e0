// Package monitoring exposes Prometheus metrics for the API and the analysis engine.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	activeConnections    prometheus.Gauge
	analysesTotal        *prometheus.CounterVec
	analysisDuration     prometheus.Histogram
	simulatedTrialsTotal prometheus.Counter
	priceSyncsTotal      *prometheus.CounterVec
	priceRowsSynced      prometheus.Counter
	reportsExpiredTotal  prometheus.Counter
	jobRunsTotal         *prometheus.CounterVec
	jobDuration          *prometheus.HistogramVec
}

// NewMetrics creates metrics on a private registry, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "basket_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "basket_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		activeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "basket_websocket_connections_active",
				Help: "Number of active event stream connections",
			},
		),
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "basket_analyses_total",
				Help: "Total number of portfolio analyses by outcome",
			},
			[]string{"status"},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "basket_analysis_duration_seconds",
				Help:    "Wall time of a full portfolio analysis",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		simulatedTrialsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "basket_simulated_trials_total",
				Help: "Total number of Monte Carlo trials run",
			},
		),
		priceSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "basket_price_syncs_total",
				Help: "Total number of instrument price syncs by outcome",
			},
			[]string{"status"},
		),
		priceRowsSynced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "basket_price_rows_synced_total",
				Help: "Total number of daily price rows written",
			},
		),
		reportsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "basket_reports_expired_total",
				Help: "Total number of cached reports removed after expiry",
			},
		),
		jobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "basket_job_runs_total",
				Help: "Total number of background job runs by outcome",
			},
			[]string{"job", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "basket_job_duration_seconds",
				Help:    "Background job run time in seconds",
				Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900},
			},
			[]string{"job"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.activeConnections,
		m.analysesTotal,
		m.analysisDuration,
		m.simulatedTrialsTotal,
		m.priceSyncsTotal,
		m.priceRowsSynced,
		m.reportsExpiredTotal,
		m.jobRunsTotal,
		m.jobDuration,
	)

	return m
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics endpoint for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// RecordAnalysis records one analysis run. status is "success" or the
// failing stage.
func (m *Metrics) RecordAnalysis(status string, duration time.Duration, trials int) {
	m.analysesTotal.WithLabelValues(status).Inc()
	m.analysisDuration.Observe(duration.Seconds())
	if trials > 0 {
		m.simulatedTrialsTotal.Add(float64(trials))
	}
}

// RecordPriceSync records one instrument sync
func (m *Metrics) RecordPriceSync(success bool, rows int) {
	status := "success"
	if !success {
		status = "error"
	}
	m.priceSyncsTotal.WithLabelValues(status).Inc()
	if rows > 0 {
		m.priceRowsSynced.Add(float64(rows))
	}
}

// RecordReportsExpired records cache cleanup results
func (m *Metrics) RecordReportsExpired(n int64) {
	if n > 0 {
		m.reportsExpiredTotal.Add(float64(n))
	}
}

// RecordJobRun records one scheduler job run
func (m *Metrics) RecordJobRun(job string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.jobRunsTotal.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// ConnectionOpened increments the active stream gauge
func (m *Metrics) ConnectionOpened() {
	m.activeConnections.Inc()
}

// ConnectionClosed decrements the active stream gauge
func (m *Metrics) ConnectionClosed() {
	m.activeConnections.Dec()
}
