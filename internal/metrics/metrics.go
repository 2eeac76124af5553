// Package metrics exposes Prometheus counters for the custody flow and the
// HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the subset used by services. Pass Noop when metrics are
// disabled.
type Recorder interface {
	RecordCustodyTransition(direction string)
	RecordCustodyFailure(direction, reason string)
	RecordCustodyLatency(direction string, d time.Duration)
}

type Collector struct {
	custodyTotal   *prometheus.CounterVec
	custodyFailed  *prometheus.CounterVec
	custodyLatency *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		custodyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearlocker_custody_transitions_total",
			Help: "Committed check-out and check-in transitions.",
		}, []string{"direction"}),
		custodyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearlocker_custody_failures_total",
			Help: "Rejected or failed custody requests by reason.",
		}, []string{"direction", "reason"}),
		custodyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gearlocker_custody_duration_seconds",
			Help:    "Time spent in a custody transition.",
			Buckets: prometheus.DefBuckets,
		}, []string{"direction"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearlocker_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gearlocker_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.custodyTotal,
		c.custodyFailed,
		c.custodyLatency,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordCustodyTransition(direction string) {
	c.custodyTotal.WithLabelValues(direction).Inc()
}

func (c *Collector) RecordCustodyFailure(direction, reason string) {
	c.custodyFailed.WithLabelValues(direction, reason).Inc()
}

func (c *Collector) RecordCustodyLatency(direction string, d time.Duration) {
	c.custodyLatency.WithLabelValues(direction).Observe(d.Seconds())
}

func (c *Collector) RecordHTTPRequest(method string, statusCode int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

type noop struct{}

func (noop) RecordCustodyTransition(string)             {}
func (noop) RecordCustodyFailure(string, string)        {}
func (noop) RecordCustodyLatency(string, time.Duration) {}

// Noop discards every observation.
var Noop Recorder = noop{}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
