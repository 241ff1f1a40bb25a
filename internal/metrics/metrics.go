// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request-level metrics for the service.
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	uploadsAccepted  prometheus.Counter
	uploadsRejected  prometheus.Counter
	ownershipDenials prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentfolio_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentfolio_request_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		uploadsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentfolio_uploads_accepted_total",
			Help: "Files accepted by the upload gateway.",
		}),
		uploadsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentfolio_uploads_rejected_total",
			Help: "Files rejected before any transfer to the media host.",
		}),
		ownershipDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentfolio_ownership_denials_total",
			Help: "Mutations refused because the ownership chain did not resolve to the caller.",
		}),
	}
	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.uploadsAccepted,
		c.uploadsRejected,
		c.ownershipDenials,
	)
	return c
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency observes one request duration.
func (c *Collector) RecordRequestLatency(d time.Duration) {
	c.requestLatency.Observe(d.Seconds())
}

// RecordUploadAccepted counts an accepted upload.
func (c *Collector) RecordUploadAccepted() {
	c.uploadsAccepted.Inc()
}

// RecordUploadRejected counts an upload rejected at the gateway.
func (c *Collector) RecordUploadRejected() {
	c.uploadsRejected.Inc()
}

// RecordOwnershipDenial counts a refused cross-user access.
func (c *Collector) RecordOwnershipDenial() {
	c.ownershipDenials.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
