// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ConfigPath returns the file the loader reads, or "" for env-only configuration.
func (l *Loader) ConfigPath() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> env overrides -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.Identifier, f.Identifier)
	setString(&cfg.AccessKey, f.AccessKey)
	setString(&cfg.AuthorizationKey, f.AuthorizationKey)
	setString(&cfg.Domain, f.Domain)
	setString(&cfg.Instance, f.Instance)
	setString(&cfg.Transport, f.Transport)
	setString(&cfg.BaseURL, f.BaseURL)
	setString(&cfg.WebSocketURL, f.WebSocketURL)
	setString(&cfg.LogLevel, f.LogLevel)

	var errs []error
	errs = append(errs,
		setDuration(&cfg.CommandTimeout, "commands.timeout", f.Commands.Timeout),
		setDuration(&cfg.HTTPTimeout, "commands.httpTimeout", f.Commands.HTTPTimeout),
		setDuration(&cfg.Backoff, "commands.backoff", f.Commands.Backoff),
		setDuration(&cfg.MaxBackoff, "commands.maxBackoff", f.Commands.MaxBackoff),
		setDuration(&cfg.Cache.TTL, "cache.ttl", f.Cache.TTL),
		setDuration(&cfg.Server.ShutdownTimeout, "server.shutdownTimeout", f.Server.ShutdownTimeout),
	)
	setPtr(&cfg.MaxRetries, f.Commands.MaxRetries)
	setPtr(&cfg.RateLimit, f.Commands.RateLimit)
	setPtr(&cfg.RateBurst, f.Commands.RateBurst)
	setPtr(&cfg.AutoNotify, f.Commands.AutoNotify)

	setString(&cfg.Cache.Backend, f.Cache.Backend)
	setString(&cfg.Cache.RedisAddr, f.Cache.RedisAddr)
	setString(&cfg.Cache.RedisPassword, f.Cache.RedisPassword)
	setPtr(&cfg.Cache.RedisDB, f.Cache.RedisDB)
	setString(&cfg.Cache.BadgerPath, f.Cache.BadgerPath)

	setString(&cfg.Server.ListenAddr, f.Server.ListenAddr)
	setPtr(&cfg.Server.WebhookRPM, f.Server.WebhookRPM)

	setPtr(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	setPtr(&cfg.Telemetry.SamplingRate, f.Telemetry.SamplingRate)

	return errors.Join(errs...)
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.Identifier = l.envString("BLIP_IDENTIFIER", cfg.Identifier)
	cfg.AccessKey = l.envString("BLIP_ACCESS_KEY", cfg.AccessKey)
	cfg.AuthorizationKey = l.envString("BLIP_AUTHORIZATION_KEY", cfg.AuthorizationKey)
	cfg.Domain = l.envString("BLIP_DOMAIN", cfg.Domain)
	cfg.Instance = l.envString("BLIP_INSTANCE", cfg.Instance)
	cfg.Transport = l.envString("BLIP_TRANSPORT", cfg.Transport)
	cfg.BaseURL = l.envString("BLIP_BASE_URL", cfg.BaseURL)
	cfg.WebSocketURL = l.envString("BLIP_WS_URL", cfg.WebSocketURL)

	cfg.CommandTimeout = l.envDuration("BLIP_COMMAND_TIMEOUT", cfg.CommandTimeout)
	cfg.HTTPTimeout = l.envDuration("BLIP_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.MaxRetries = l.envInt("BLIP_MAX_RETRIES", cfg.MaxRetries)
	cfg.Backoff = l.envDuration("BLIP_BACKOFF", cfg.Backoff)
	cfg.MaxBackoff = l.envDuration("BLIP_MAX_BACKOFF", cfg.MaxBackoff)
	cfg.RateLimit = l.envFloat("BLIP_RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = l.envInt("BLIP_RATE_BURST", cfg.RateBurst)
	cfg.AutoNotify = l.envBool("BLIP_AUTO_NOTIFY", cfg.AutoNotify)

	cfg.Cache.Backend = l.envString("BLIP_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("BLIP_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("BLIP_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("BLIP_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("BLIP_REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.BadgerPath = l.envString("BLIP_BADGER_PATH", cfg.Cache.BadgerPath)

	cfg.Server.ListenAddr = l.envString("BLIP_LISTEN", cfg.Server.ListenAddr)
	cfg.Server.WebhookRPM = l.envInt("BLIP_WEBHOOK_RPM", cfg.Server.WebhookRPM)
	cfg.Server.ShutdownTimeout = l.envDuration("BLIP_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Telemetry.Enabled = l.envBool("BLIP_TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("BLIP_OTLP_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("BLIP_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("BLIP_TRACE_SAMPLING", cfg.Telemetry.SamplingRate)

	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
