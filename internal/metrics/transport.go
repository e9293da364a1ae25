// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transportRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blip_transport_request_total",
			Help: "Total number of transport request attempts",
		},
		[]string{"transport", "endpoint", "status_class"},
	)
	transportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blip_transport_request_duration_seconds",
			Help:    "Duration of transport requests per attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 8),
		},
		[]string{"transport", "endpoint", "status_class"},
	)
	transportRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blip_transport_request_retries_total",
			Help: "Number of transport request retries performed",
		},
		[]string{"transport", "endpoint", "status_class"},
	)
	sessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blip_session_state",
			Help: "Current LIME session state of the websocket transport (1 for the active state)",
		},
		[]string{"state"},
	)
)

// StatusClass buckets an HTTP status (or transport error) into a label.
func StatusClass(err error, status int) string {
	if err != nil {
		return "error"
	}
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status > 0:
		return "1xx"
	}
	return "unknown"
}

// RecordTransportAttempt records one transport request attempt.
func RecordTransportAttempt(transport, endpoint string, status int, duration time.Duration, err error, retry bool) {
	class := StatusClass(err, status)
	transportRequestTotal.WithLabelValues(transport, endpoint, class).Inc()
	transportRequestDuration.WithLabelValues(transport, endpoint, class).Observe(duration.Seconds())
	if retry {
		transportRequestRetries.WithLabelValues(transport, endpoint, class).Inc()
	}
}

var sessionStates = []string{"new", "negotiating", "authenticating", "established", "finishing", "finished", "failed"}

// SetSessionState marks the active session state.
func SetSessionState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}
