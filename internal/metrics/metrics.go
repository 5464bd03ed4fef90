package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest results.
const (
	ResultOK         = "ok"
	ResultMediaError = "media_error"
	ResultStoreError = "storage_error"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ingestTotal     *prometheus.CounterVec
	orphanedMedia   prometheus.Counter
	subscribers     prometheus.Gauge
	deliveryFailed  prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDurationSec *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_events",
			Name:      "ingest_total",
			Help:      "Ingested events by result",
		}, []string{"result"}),
		orphanedMedia: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensor_events",
			Name:      "media_orphaned_total",
			Help:      "Media files written whose event row was not inserted",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sensor_events",
			Name:      "live_subscribers",
			Help:      "Currently connected /live subscribers",
		}),
		deliveryFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sensor_events",
			Name:      "live_delivery_failed_total",
			Help:      "Broadcast sends that failed and dropped the subscriber",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sensor_events",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sensor_events",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.ingestTotal,
		m.orphanedMedia,
		m.subscribers,
		m.deliveryFailed,
		m.httpRequests,
		m.httpDurationSec,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Ingested(result string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) MediaOrphaned() {
	if m == nil {
		return
	}
	m.orphanedMedia.Inc()
}

// SubscribersChanged implements live.Observer.
func (m *Metrics) SubscribersChanged(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// DeliveryFailed implements live.Observer.
func (m *Metrics) DeliveryFailed(n int) {
	if m == nil {
		return
	}
	m.deliveryFailed.Add(float64(n))
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurationSec.WithLabelValues(method, route).Observe(d.Seconds())
}
