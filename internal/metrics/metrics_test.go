// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "error", metrics.StatusClass(errors.New("x"), 200))
	assert.Equal(t, "2xx", metrics.StatusClass(nil, 202))
	assert.Equal(t, "4xx", metrics.StatusClass(nil, 401))
	assert.Equal(t, "5xx", metrics.StatusClass(nil, 503))
	assert.Equal(t, "unknown", metrics.StatusClass(nil, 0))
}

func TestExposure(t *testing.T) {
	metrics.RecordEnvelopeSent("message", nil)
	metrics.RecordEnvelopeReceived("notification")
	metrics.ObserveCommand("get", "success", 20*time.Millisecond)
	metrics.RecordCacheLookup("memory", "hit")
	metrics.RecordTransportAttempt("http", "/commands", 200, time.Millisecond, nil, false)
	metrics.SetSessionState("established")
	breaker := metrics.BreakerLabels{Transport: "http", Endpoint: metrics.EndpointLabel("https://acme.http.msging.net")}
	metrics.SetBreakerState(breaker, "open")
	metrics.RecordBreakerTrip(breaker, "threshold_exceeded")
	metrics.RecordBreakerRejection(breaker, "open")
	metrics.SetBreakerFailures(breaker, 3, 5)

	body := scrape(t)
	for _, name := range []string{
		"blip_envelopes_sent_total",
		"blip_envelopes_received_total",
		"blip_command_duration_seconds",
		"blip_command_cache_total",
		"blip_transport_request_total",
		`blip_session_state{state="established"} 1`,
		`blip_transport_breaker_state{endpoint="acme.http.msging.net",state="open",transport="http"} 1`,
		`blip_transport_breaker_state{endpoint="acme.http.msging.net",state="closed",transport="http"} 0`,
		`blip_transport_breaker_trips_total{endpoint="acme.http.msging.net",reason="threshold_exceeded",transport="http"} 1`,
		`blip_transport_breaker_rejections_total{endpoint="acme.http.msging.net",state="open",transport="http"} 1`,
		`blip_transport_breaker_consecutive_failures{endpoint="acme.http.msging.net",threshold="5",transport="http"} 3`,
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "acme.http.msging.net", metrics.EndpointLabel("https://acme.http.msging.net/commands"))
	assert.Equal(t, "localhost:8080", metrics.EndpointLabel("http://localhost:8080"))
	assert.Equal(t, "unknown", metrics.EndpointLabel(""))
	assert.Equal(t, "unknown", metrics.EndpointLabel("://bad"))
}
