// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/blip-sdk-go/internal/validate"
)

// Validate checks a resolved AppConfig. Credentials are not checked here so
// that `blipctl version` runs without them; commands that talk to BLiP check
// them through HasCredentials.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("Domain", cfg.Domain)
	v.OneOf("Transport", cfg.Transport, []string{TransportHTTP, TransportWebSocket})
	switch cfg.Transport {
	case TransportHTTP:
		v.URL("BaseURL", cfg.BaseURL, []string{"http", "https"})
	case TransportWebSocket:
		v.URL("WebSocketURL", cfg.WebSocketURL, []string{"ws", "wss"})
	}

	v.PositiveDuration("CommandTimeout", cfg.CommandTimeout)
	v.PositiveDuration("HTTPTimeout", cfg.HTTPTimeout)
	v.Range("MaxRetries", cfg.MaxRetries, 0, 10)
	if cfg.RateLimit < 0 {
		v.AddError("RateLimit", "must be non-negative", cfg.RateLimit)
	}
	v.NonNegative("RateBurst", cfg.RateBurst)

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{"none", "memory", "redis", "badger"})
	switch cfg.Cache.Backend {
	case "redis":
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
	case "badger":
		v.NotEmpty("Cache.BadgerPath", cfg.Cache.BadgerPath)
	}
	if cfg.Cache.Backend != "none" {
		v.PositiveDuration("Cache.TTL", cfg.Cache.TTL)
	}

	v.NotEmpty("Server.ListenAddr", cfg.Server.ListenAddr)
	v.NonNegative("Server.WebhookRPM", cfg.Server.WebhookRPM)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.Ratio("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate)
	}

	v.LogLevel("LogLevel", cfg.LogLevel)

	return v.Err()
}

// HasCredentials reports whether the config can authenticate against BLiP.
func (c AppConfig) HasCredentials() bool {
	if strings.TrimSpace(c.AuthorizationKey) != "" {
		return true
	}
	return strings.TrimSpace(c.Identifier) != "" && strings.TrimSpace(c.AccessKey) != ""
}
