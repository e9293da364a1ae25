// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blip_command_cache_total",
	Help: "Command cache lookups by backend and result",
}, []string{"backend", "result"}) // result=hit|miss|evict|error

// RecordCacheLookup counts a command cache event.
func RecordCacheLookup(backend, result string) {
	cacheLookups.WithLabelValues(backend, result).Inc()
}
