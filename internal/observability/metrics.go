package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/techlearn-backend/internal/platform/envutil"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	apiErrors     *prometheus.CounterVec
	extractions   *prometheus.CounterVec
	extractionDur *prometheus.HistogramVec
	assessments   *prometheus.CounterVec
	pointsAwarded *prometheus.CounterVec
	oracleCalls   *prometheus.CounterVec
	oracleLatency prometheus.Histogram
	tasks         *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Current returns the process-wide metrics, or nil when Init has not run.
// Every Metrics method is safe to call on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			return
		}
		instance = newMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techlearn_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "techlearn_http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		apiErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_http_errors_total",
			Help: "HTTP error responses by route and error code.",
		}, []string{"route", "code"}),
		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_extractions_total",
			Help: "Content extraction runs by content type and result.",
		}, []string{"content_type", "result"}),
		extractionDur: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techlearn_extraction_duration_seconds",
			Help:    "Content extraction duration.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"content_type"}),
		assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_assessments_total",
			Help: "Assessment submissions by outcome.",
		}, []string{"passed"}),
		pointsAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_points_awarded_total",
			Help: "Points awarded by reason.",
		}, []string{"reason"}),
		oracleCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_oracle_calls_total",
			Help: "Text-completion oracle calls by result.",
		}, []string{"result"}),
		oracleLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "techlearn_oracle_call_duration_seconds",
			Help:    "Text-completion oracle latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_background_tasks_total",
			Help: "Background tasks by name and result.",
		}, []string{"task", "result"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techlearn_cache_lookups_total",
			Help: "Cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

// ObserveAPIError counts an error envelope returned on route.
func (m *Metrics) ObserveAPIError(route, code string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiErrors.WithLabelValues(route, code).Inc()
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveExtraction(contentType, result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(contentType, result).Inc()
	m.extractionDur.WithLabelValues(contentType).Observe(dur.Seconds())
}

func (m *Metrics) IncAssessment(passed bool) {
	if m == nil {
		return
	}
	label := "false"
	if passed {
		label = "true"
	}
	m.assessments.WithLabelValues(label).Inc()
}

func (m *Metrics) AddPoints(reason string, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.pointsAwarded.WithLabelValues(reason).Add(float64(amount))
}

func (m *Metrics) ObserveOracle(result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(result).Inc()
	m.oracleLatency.Observe(dur.Seconds())
}

func (m *Metrics) IncTask(name, result string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, result).Inc()
}

func (m *Metrics) IncCache(namespace string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, result).Inc()
}
