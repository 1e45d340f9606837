package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsInitiated counts authorization URLs handed out.
	LoginsInitiated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gapirelay_logins_initiated_total",
			Help: "The total number of login attempts started.",
		},
	)

	// CodeExchanges counts code-exchange outcomes.
	CodeExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapirelay_code_exchanges_total",
			Help: "The total number of authorization code exchanges by result.",
		},
		[]string{"result"},
	)

	// TokenRefreshes counts refresh outcomes.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapirelay_token_refreshes_total",
			Help: "The total number of token refreshes by result.",
		},
		[]string{"result"},
	)

	// UpstreamRequestDuration is a histogram of provider API call latency.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gapirelay_upstream_request_duration_seconds",
			Help:    "A histogram of provider API request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// UpstreamErrors counts non-2xx provider responses.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gapirelay_upstream_errors_total",
			Help: "The total number of provider API failures by endpoint.",
		},
		[]string{"endpoint"},
	)

	// SelectionPolls counts picker media fetch attempts.
	SelectionPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gapirelay_selection_polls_total",
			Help: "The total number of picker media fetch attempts.",
		},
	)

	// SelectionTimeouts counts selections that exhausted their retries.
	SelectionTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gapirelay_selection_timeouts_total",
			Help: "The total number of selections that timed out before media was ready.",
		},
	)
)
