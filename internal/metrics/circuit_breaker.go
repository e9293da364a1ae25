// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BreakerLabels identifies the BLiP endpoint a circuit breaker guards.
type BreakerLabels struct {
	Transport string
	Endpoint  string
}

// EndpointLabel reduces a base URL to its host so the label stays bounded
// by the number of configured tenants rather than by request paths.
func EndpointLabel(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func (l BreakerLabels) values(extra string) []string {
	transport, endpoint := l.Transport, l.Endpoint
	if transport == "" {
		transport = "unknown"
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return []string{transport, endpoint, extra}
}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blip_transport_breaker_state",
		Help: "Circuit breaker state per transport endpoint (1 for the active state, 0 otherwise)",
	}, []string{"transport", "endpoint", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blip_transport_breaker_trips_total",
		Help: "Transitions to the open state per transport endpoint",
	}, []string{"transport", "endpoint", "reason"})

	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blip_transport_breaker_rejections_total",
		Help: "Requests refused without reaching BLiP because the breaker was open",
	}, []string{"transport", "endpoint", "state"})

	breakerFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "blip_transport_breaker_consecutive_failures",
		Help: "Consecutive counted failures since the last success",
	}, []string{"transport", "endpoint", "threshold"})
)

var breakerStates = []string{"closed", "half-open", "open"}

// SetBreakerState marks state as the active one for the endpoint.
func SetBreakerState(l BreakerLabels, state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		breakerState.WithLabelValues(l.values(s)...).Set(value)
	}
}

// RecordBreakerTrip counts a transition to open.
func RecordBreakerTrip(l BreakerLabels, reason string) {
	breakerTrips.WithLabelValues(l.values(reason)...).Inc()
}

// RecordBreakerRejection counts a request short-circuited in state.
func RecordBreakerRejection(l BreakerLabels, state string) {
	breakerRejections.WithLabelValues(l.values(state)...).Inc()
}

// SetBreakerFailures reports the current failure streak against threshold.
func SetBreakerFailures(l BreakerLabels, failures, threshold int) {
	breakerFailures.WithLabelValues(l.values(strconv.Itoa(threshold))...).Set(float64(failures))
}
