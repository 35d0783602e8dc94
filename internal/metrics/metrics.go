// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deposit outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics groups the collectors. Use New to register them.
type Metrics struct {
	DepositsTotal       *prometheus.CounterVec
	DepositDuration     prometheus.Histogram
	GoalsCompletedTotal prometheus.Counter
	GoalsCreatedTotal   prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		DepositsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wholecoin_deposits_total",
				Help: "Deposit recordings by transaction type and outcome",
			},
			[]string{"type", "outcome"},
		),
		DepositDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wholecoin_deposit_duration_seconds",
				Help:    "Deposit recording duration",
				Buckets: prometheus.DefBuckets,
			},
		),
		GoalsCompletedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "wholecoin_goals_completed_total",
				Help: "Goals completed by a deposit",
			},
		),
		GoalsCreatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "wholecoin_goals_created_total",
				Help: "Goals created",
			},
		),
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wholecoin_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wholecoin_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}
}

// ObserveDeposit counts a deposit recording that started at start.
func (m *Metrics) ObserveDeposit(txType, outcome string, start time.Time) {
	m.DepositsTotal.WithLabelValues(txType, outcome).Inc()
	m.DepositDuration.Observe(time.Since(start).Seconds())
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
