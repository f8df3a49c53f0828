package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Search outcomes.
const (
	SearchSucceeded  = "succeeded"
	SearchNotFound   = "not_found"
	SearchFailed     = "failed"
	SearchSuperseded = "superseded"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnpoi_upstream_requests_total",
			Help: "Total number of requests sent to third-party services",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vnpoi_upstream_request_duration_seconds",
			Help:    "Duration of requests to third-party services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	POIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vnpoi_poi_retries_total",
			Help: "Total number of POI fetch retries",
		},
	)

	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnpoi_searches_total",
			Help: "Total number of location searches by outcome",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vnpoi_cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"kind", "result"},
	)
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(provider string, seconds float64, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	UpstreamRequests.WithLabelValues(provider, outcome).Inc()
	UpstreamDuration.WithLabelValues(provider).Observe(seconds)
}
