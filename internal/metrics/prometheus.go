// Package metrics provides a Prometheus metrics registry for the hackstack
// backend.
//
// All metrics are scoped to a private registry (not the global default) so
// they don't interfere with host-level metrics when embedded in other
// applications. The /metrics HTTP handler is exposed via Handler().
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var durationBuckets = []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30}

// Registry holds all exported metrics.
type Registry struct {
	reg *prometheus.Registry

	// hackstack_inflight_requests
	inFlight prometheus.Gauge

	// hackstack_http_requests_total{route,status}
	httpRequestsTotal *prometheus.CounterVec

	// hackstack_http_request_duration_seconds{route}
	httpDuration *prometheus.HistogramVec

	// hackstack_vendor_dispatch_total{vendor,operation,mode,status}
	dispatchTotal *prometheus.CounterVec

	// hackstack_vendor_live_duration_seconds{vendor,operation,outcome}
	liveDuration *prometheus.HistogramVec

	// hackstack_service_health{service}: 1 healthy, 0.5 degraded, 0 unhealthy
	serviceHealth *prometheus.GaugeVec

	// hackstack_integration_score / hackstack_credential_score (0-100)
	integrationScore prometheus.Gauge
	credentialScore  prometheus.Gauge

	// hackstack_dispatch_logs_dropped_total
	droppedLogs prometheus.CounterFunc

	// hackstack_build_info{version}
	buildInfo *prometheus.GaugeVec

	metricsHandler fasthttp.RequestHandler
}

// New creates the registry. dropped, when non-nil, is sampled on every
// scrape to report dispatch log entries lost to a full buffer.
func New(dropped func() int64) *Registry {
	reg := prometheus.NewRegistry()

	// Baseline runtime metrics even with a private registry.
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	if dropped == nil {
		dropped = func() int64 { return 0 }
	}

	r := &Registry{
		reg: reg,

		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hackstack_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackstack_http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"route", "status"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hackstack_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: durationBuckets,
			},
			[]string{"route"},
		),

		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hackstack_vendor_dispatch_total",
				Help: "Vendor operations dispatched, by mode and result status",
			},
			[]string{"vendor", "operation", "mode", "status"},
		),

		liveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hackstack_vendor_live_duration_seconds",
				Help:    "Duration of live vendor calls in seconds",
				Buckets: durationBuckets,
			},
			[]string{"vendor", "operation", "outcome"},
		),

		serviceHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hackstack_service_health",
				Help: "Service health from the last debug report (1=healthy, 0.5=degraded, 0=unhealthy)",
			},
			[]string{"service"},
		),

		integrationScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hackstack_integration_score",
			Help: "Percentage of vendors that are fully credentialed",
		}),

		credentialScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hackstack_credential_score",
			Help: "Percentage of required vendor variables that are present",
		}),

		droppedLogs: prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "hackstack_dispatch_logs_dropped_total",
				Help: "Dispatch log entries dropped because the buffer was full",
			},
			func() float64 { return float64(dropped()) },
		),

		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hackstack_build_info",
				Help: "Build information",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(
		r.inFlight,
		r.httpRequestsTotal,
		r.httpDuration,
		r.dispatchTotal,
		r.liveDuration,
		r.serviceHealth,
		r.integrationScore,
		r.credentialScore,
		r.droppedLogs,
		r.buildInfo,
	)

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	r.metricsHandler = fasthttpadaptor.NewFastHTTPHandler(h)

	return r
}

func (r *Registry) IncInFlight() { r.inFlight.Inc() }
func (r *Registry) DecInFlight() { r.inFlight.Dec() }

// ObserveHTTP records end-to-end HTTP metrics.
func (r *Registry) ObserveHTTP(route string, statusCode int, dur time.Duration) {
	r.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(dur.Seconds())
}

// RecordDispatch counts one vendor dispatch.
func (r *Registry) RecordDispatch(vendor, operation, mode, status string) {
	r.dispatchTotal.WithLabelValues(vendor, operation, mode, status).Inc()
}

// ObserveLiveCall records the duration of one live vendor attempt.
func (r *Registry) ObserveLiveCall(vendor, operation, outcome string, dur time.Duration) {
	r.liveDuration.WithLabelValues(vendor, operation, outcome).Observe(dur.Seconds())
}

// SetServiceHealth maps a health status string onto the gauge.
func (r *Registry) SetServiceHealth(service, status string) {
	var v float64
	switch status {
	case "healthy":
		v = 1
	case "degraded":
		v = 0.5
	}
	r.serviceHealth.WithLabelValues(service).Set(v)
}

// SetScores publishes the latest integration and credential scores.
func (r *Registry) SetScores(integration, credential float64) {
	r.integrationScore.Set(integration)
	r.credentialScore.Set(credential)
}

func (r *Registry) SetBuildInfo(version string) {
	// Gauge is used so the time series always exists.
	r.buildInfo.WithLabelValues(version).Set(1)
}

func (r *Registry) Handler() fasthttp.RequestHandler {
	return r.metricsHandler
}

func (r *Registry) PromRegistry() *prometheus.Registry { return r.reg }
