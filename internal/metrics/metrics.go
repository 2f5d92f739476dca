// Package metrics exposes Prometheus counters for the authentication core.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK     = "ok"
	ResultDenied = "denied"
	ResultError  = "error"
)

var (
	// AuthOperations counts session operations by name and outcome.
	AuthOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "records",
		Subsystem: "auth",
		Name:      "operations_total",
		Help:      "Session operations (signup, signin, refresh, logout) by result.",
	}, []string{"op", "result"})

	// GuardRejections counts requests rejected by the authorization guard.
	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "records",
		Subsystem: "auth",
		Name:      "guard_rejections_total",
		Help:      "Requests rejected before dispatch, by token class and reason.",
	}, []string{"class", "reason"})

	// RateLimited counts requests refused by the credential rate limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "records",
		Subsystem: "auth",
		Name:      "rate_limited_total",
		Help:      "Requests refused by the rate limiter, by route.",
	}, []string{"route"})
)

// ObserveAuth records one session operation.
func ObserveAuth(op, result string) {
	AuthOperations.WithLabelValues(op, result).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
