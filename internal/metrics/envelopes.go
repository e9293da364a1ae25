// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	envelopesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blip_envelopes_sent_total",
		Help: "Envelopes sent by kind and outcome",
	}, []string{"kind", "outcome"}) // outcome=ok|error

	envelopesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blip_envelopes_received_total",
		Help: "Envelopes received by kind",
	}, []string{"kind"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blip_command_duration_seconds",
		Help:    "Round-trip time of processed commands",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10),
	}, []string{"method", "status"}) // status=success|failure|timeout|error

	pendingCommands = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blip_pending_commands",
		Help: "Commands waiting for a response",
	})

	receiverFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blip_receiver_failures_total",
		Help: "Receiver handler failures by envelope kind",
	}, []string{"kind"})
)

// RecordEnvelopeSent counts an outbound envelope.
func RecordEnvelopeSent(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	envelopesSent.WithLabelValues(kind, outcome).Inc()
}

// RecordEnvelopeReceived counts an inbound envelope.
func RecordEnvelopeReceived(kind string) {
	envelopesReceived.WithLabelValues(kind).Inc()
}

// ObserveCommand records the round trip of a processed command.
func ObserveCommand(method, status string, d time.Duration) {
	commandDuration.WithLabelValues(method, status).Observe(d.Seconds())
}

// SetPendingCommands sets the current number of in-flight commands.
func SetPendingCommands(n int) {
	pendingCommands.Set(float64(n))
}

// RecordReceiverFailure counts a failed receiver handler.
func RecordReceiverFailure(kind string) {
	receiverFailures.WithLabelValues(kind).Inc()
}
