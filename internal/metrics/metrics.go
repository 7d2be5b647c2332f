// Package metrics exposes Prometheus counters for the order workflow and HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware depend on.
type Recorder interface {
	RecordOrderInitiated()
	RecordOrderPaid()
	RecordOrderFailed()
	RecordGatewayError(reason string)
	RecordSeatConflict()
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordRateLimited()
}

type Collector struct {
	ordersInitiated prometheus.Counter
	ordersPaid      prometheus.Counter
	ordersFailed    prometheus.Counter
	gatewayErrors   *prometheus.CounterVec
	seatConflicts   prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     prometheus.Histogram
	rateLimited     prometheus.Counter
}

// NewCollector registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ordersInitiated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camp_orders_initiated_total",
			Help: "Orders created after a successful gateway session",
		}),
		ordersPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camp_orders_paid_total",
			Help: "Orders moved to paid by the success callback",
		}),
		ordersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camp_orders_failed_total",
			Help: "Pending orders removed by the failure callback",
		}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camp_gateway_errors_total",
			Help: "Payment gateway session failures by reason",
		}, []string{"reason"}),
		seatConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camp_seat_conflicts_total",
			Help: "Success callbacks rejected because the class was full",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "camp_http_requests_total",
			Help: "HTTP responses by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "camp_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "camp_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		c.ordersInitiated,
		c.ordersPaid,
		c.ordersFailed,
		c.gatewayErrors,
		c.seatConflicts,
		c.httpRequests,
		c.httpLatency,
		c.rateLimited,
	)

	return c
}

func (c *Collector) RecordOrderInitiated() { c.ordersInitiated.Inc() }
func (c *Collector) RecordOrderPaid()      { c.ordersPaid.Inc() }
func (c *Collector) RecordOrderFailed()    { c.ordersFailed.Inc() }
func (c *Collector) RecordSeatConflict()   { c.seatConflicts.Inc() }
func (c *Collector) RecordRateLimited()    { c.rateLimited.Inc() }

func (c *Collector) RecordGatewayError(reason string) {
	c.gatewayErrors.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordOrderInitiated()                        {}
func (Noop) RecordOrderPaid()                             {}
func (Noop) RecordOrderFailed()                           {}
func (Noop) RecordGatewayError(string)                    {}
func (Noop) RecordSeatConflict()                          {}
func (Noop) RecordHTTPRequest(string, int, time.Duration) {}
func (Noop) RecordRateLimited()                           {}
