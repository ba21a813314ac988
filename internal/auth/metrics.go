// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the auth service and token lifecycle.
var (
	// loginAttempts counts login calls by outcome.
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// tokenRefreshes counts refresh calls by outcome.
	tokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_refreshes_total",
		Help: "Total number of token refresh attempts by result",
	}, []string{"result"})

	// tokensSwept counts token rows removed by the sweeper.
	tokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_swept_total",
		Help: "Total number of expired token pairs removed by the sweeper",
	})

	// sweepDuration tracks the latency of sweep cycles.
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_sweep_duration_seconds",
		Help:    "Histogram of expired-token sweep latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// recordLogin records a login attempt outcome ("ok", "invalid",
// "inactive", "error").
func recordLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// recordRefresh records a refresh attempt outcome ("ok", "not_found",
// "expired", "error").
func recordRefresh(result string) {
	tokenRefreshes.WithLabelValues(result).Inc()
}

// recordSweep records one completed sweep cycle.
func recordSweep(removed int64, duration time.Duration) {
	tokensSwept.Add(float64(removed))
	sweepDuration.Observe(duration.Seconds())
}
