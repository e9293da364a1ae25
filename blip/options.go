// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Transport kinds accepted in Options.TransportKind.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

const (
	defaultDomain         = "msging.net"
	defaultInstance       = "default"
	defaultHTTPURL        = "https://http.msging.net"
	defaultWebSocketURL   = "wss://ws.msging.net"
	defaultCommandTimeout = 30 * time.Second
	defaultHTTPTimeout    = 10 * time.Second
	defaultRetries        = 2
	defaultBackoff        = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultCacheTTL       = time.Minute
)

// CommandCache stores encoded successful GET responses. Implementations must be
// safe for concurrent use.
type CommandCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Options configures a Client.
type Options struct {
	// Identifier is the bot identifier (the name part of its identity).
	Identifier string
	// AccessKey is the base64 access key issued by the portal.
	AccessKey string
	// AuthorizationKey, when set, is sent verbatim as "Authorization: Key <value>"
	// and replaces Identifier/AccessKey for the HTTP transport.
	AuthorizationKey string

	Domain   string
	Instance string

	// TransportKind selects the built-in transport. Ignored when Transport is set.
	TransportKind string
	// Transport replaces the built-in transports.
	Transport Transport

	BaseURL      string
	WebSocketURL string
	HTTPClient   *http.Client
	UserAgent    string

	CommandTimeout time.Duration
	HTTPTimeout    time.Duration
	MaxRetries     int
	Backoff        time.Duration
	MaxBackoff     time.Duration
	RateLimit      rate.Limit // outbound requests per second; 0 disables
	RateLimitBurst int

	// DisableAutoNotify stops the client from answering received messages with
	// received/consumed/failed notifications.
	DisableAutoNotify bool

	Cache    CommandCache
	CacheTTL time.Duration

	Logger *zerolog.Logger
}

func normalizeOptions(opts Options) (Options, error) {
	opts.Identifier = strings.TrimSpace(opts.Identifier)
	opts.AccessKey = strings.TrimSpace(opts.AccessKey)
	opts.AuthorizationKey = strings.TrimSpace(opts.AuthorizationKey)

	if opts.Domain == "" {
		opts.Domain = defaultDomain
	}
	if opts.Instance == "" {
		opts.Instance = defaultInstance
	}
	if opts.TransportKind == "" {
		opts.TransportKind = TransportHTTP
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultHTTPURL
	}
	if opts.WebSocketURL == "" {
		opts.WebSocketURL = defaultWebSocketURL
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 1
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	if opts.Transport != nil {
		return opts, nil
	}
	switch opts.TransportKind {
	case TransportHTTP:
		if opts.AuthorizationKey == "" && (opts.Identifier == "" || opts.AccessKey == "") {
			return opts, fmt.Errorf("%w: identifier and access key, or an authorization key, are required", ErrInvalidOptions)
		}
	case TransportWebSocket:
		if opts.Identifier == "" || opts.AccessKey == "" {
			return opts, fmt.Errorf("%w: identifier and access key are required for websocket", ErrInvalidOptions)
		}
	default:
		return opts, fmt.Errorf("%w: unknown transport %q", ErrInvalidOptions, opts.TransportKind)
	}
	return opts, nil
}

// AuthorizationKey derives the HTTP "Key" credential: base64 of
// "identifier:password" where password is the decoded access key.
func AuthorizationKey(identifier, accessKey string) (string, error) {
	password, err := base64.StdEncoding.DecodeString(accessKey)
	if err != nil {
		return "", fmt.Errorf("%w: access key is not valid base64: %v", ErrInvalidOptions, err)
	}
	return base64.StdEncoding.EncodeToString([]byte(identifier + ":" + string(password))), nil
}
