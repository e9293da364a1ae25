// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads blipctl configuration from defaults, a YAML file and the environment.
package config

import "time"

// Transport kinds.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version string

	// Credentials
	Identifier       string
	AccessKey        string
	AuthorizationKey string

	// Connection
	Domain       string
	Instance     string
	Transport    string
	BaseURL      string
	WebSocketURL string

	// Command processing
	CommandTimeout time.Duration
	HTTPTimeout    time.Duration
	MaxRetries     int
	Backoff        time.Duration
	MaxBackoff     time.Duration
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int
	AutoNotify     bool

	Cache     CacheConfig
	Server    ServerConfig
	Telemetry TelemetryConfig

	LogLevel string
}

// CacheConfig configures the command response cache.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerPath    string
}

// ServerConfig configures `blipctl serve`.
type ServerConfig struct {
	ListenAddr      string
	WebhookRPM      int
	ShutdownTimeout time.Duration
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig is the YAML file layout. Zero values mean "not set".
type FileConfig struct {
	Identifier       string `yaml:"identifier,omitempty"`
	AccessKey        string `yaml:"accessKey,omitempty"`
	AuthorizationKey string `yaml:"authorizationKey,omitempty"`
	Domain           string `yaml:"domain,omitempty"`
	Instance         string `yaml:"instance,omitempty"`
	Transport        string `yaml:"transport,omitempty"`
	BaseURL          string `yaml:"baseUrl,omitempty"`
	WebSocketURL     string `yaml:"webSocketUrl,omitempty"`
	LogLevel         string `yaml:"logLevel,omitempty"`

	Commands  CommandsFileConfig  `yaml:"commands,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	Server    ServerFileConfig    `yaml:"server,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type CommandsFileConfig struct {
	Timeout     string   `yaml:"timeout,omitempty"`
	HTTPTimeout string   `yaml:"httpTimeout,omitempty"`
	MaxRetries  *int     `yaml:"maxRetries,omitempty"`
	Backoff     string   `yaml:"backoff,omitempty"`
	MaxBackoff  string   `yaml:"maxBackoff,omitempty"`
	RateLimit   *float64 `yaml:"rateLimit,omitempty"`
	RateBurst   *int     `yaml:"rateBurst,omitempty"`
	AutoNotify  *bool    `yaml:"autoNotify,omitempty"`
}

type CacheFileConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	TTL           string `yaml:"ttl,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDb,omitempty"`
	BadgerPath    string `yaml:"badgerPath,omitempty"`
}

type ServerFileConfig struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	WebhookRPM      *int   `yaml:"webhookRpm,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Domain:         "msging.net",
		Transport:      TransportHTTP,
		BaseURL:        "https://http.msging.net",
		WebSocketURL:   "wss://ws.msging.net",
		CommandTimeout: 30 * time.Second,
		HTTPTimeout:    10 * time.Second,
		MaxRetries:     2,
		Backoff:        200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		RateBurst:      1,
		AutoNotify:     true,
		Cache: CacheConfig{
			Backend: "none",
			TTL:     time.Minute,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			WebhookRPM:      600,
			ShutdownTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		LogLevel: "info",
	}
}
