// Package metrics — prometheus-метрики клиента: HTTP-запросы к инстансу
// и события сокета. Reporter подходит как request.Reporter.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trtl"

type Reporter struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	events    *prometheus.CounterVec
	connected prometheus.Gauge
}

// New — репортер со своим реестром (не глобальным), constLabels добавляются ко всем метрикам.
func New(constLabels map[string]string) *Reporter {
	r := &Reporter{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "requests sent to the instance; status 0 is a transport error",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "time until response headers",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "socket",
			Name:        "events_total",
			Help:        "events published by the realtime connection",
			ConstLabels: constLabels,
		}, []string{"event"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "socket",
			Name:        "connected",
			Help:        "1 while the realtime connection is up",
			ConstLabels: constLabels,
		}),
	}
	r.registry.MustRegister(r.requests, r.latency, r.events, r.connected)
	return r
}

// ReportRequest реализует request.Reporter.
func (r *Reporter) ReportRequest(method, path string, status int, elapsed time.Duration) {
	route := Route(path)
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ReportEvent считает событие сокета; connected/disconnected двигают gauge.
func (r *Reporter) ReportEvent(name string) {
	r.events.WithLabelValues(name).Inc()
	switch name {
	case "connected":
		r.connected.Set(1)
	case "disconnected":
		r.connected.Set(0)
	}
}

// Handler — /metrics для этого реестра.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Reporter) Registry() *prometheus.Registry {
	return r.registry
}

// Route сворачивает пути с именами в шаблон, чтобы не плодить лейблы.
func Route(path string) string {
	switch {
	case strings.HasPrefix(path, "/worker/user/"):
		return "/worker/user/:name"
	case strings.HasPrefix(path, "/content/"), strings.HasPrefix(path, "/images/"):
		return "/content"
	default:
		return path
	}
}
