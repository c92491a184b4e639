// Package metrics registers the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yamdb"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Requests rejected by the rate limiter.",
	})

	ConfirmationCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_codes_issued_total",
		Help:      "Confirmation codes generated by signup.",
	})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Access tokens issued for a confirmation code.",
	})

	FailedTokenAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failed_token_attempts_total",
		Help:      "Token requests rejected for a wrong or stale confirmation code.",
	})

	AuditLogsCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_logs_cleaned_total",
		Help:      "Audit rows removed by the retention job.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
