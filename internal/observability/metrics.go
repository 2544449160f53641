// README: Prometheus metrics for ride lifecycle, matching, sweeping, and HTTP.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "rides_created_total", Help: "Total rides created"})
	RideJoinsTotal      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "ride_joins_total", Help: "Total successful joins"})
	RideLeavesTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "ride_leaves_total", Help: "Total successful leaves"})
	RidesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "rides_completed_total", Help: "Total rides completed"})
	RidesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "rides_cancelled_total", Help: "Total rides cancelled"})

	MatchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "match_requests_total", Help: "Total match queries served"})
	MatchStoreErrors   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "match_store_errors_total", Help: "Match queries degraded to empty results by storage errors"})

	SweepCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "sweep_completed_total", Help: "Expired rides retired as completed"})
	SweepDeletedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "sweep_deleted_total", Help: "Expired empty rides hard-deleted"})
	SweepErrorsTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "campool", Name: "sweep_errors_total", Help: "Per-ride sweep failures"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
