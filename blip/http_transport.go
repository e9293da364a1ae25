// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/metrics"
	"github.com/ManuGH/blip-sdk-go/internal/resilience"
	"github.com/ManuGH/blip-sdk-go/internal/telemetry"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	BaseURL          string
	AuthorizationKey string
	Timeout          time.Duration
	MaxRetries       int
	Backoff          time.Duration
	MaxBackoff       time.Duration
	RateLimit        rate.Limit // 0 disables
	RateLimitBurst   int
	UserAgent        string
	HTTPClient       *http.Client
	BreakerThreshold int
	BreakerReset     time.Duration
	Logger           zerolog.Logger
}

// HTTPTransport posts envelopes to the BLiP HTTP API. Command responses are
// read from the response body and handed to the deliver callback.
type HTTPTransport struct {
	baseURL    string
	authHeader string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	userAgent  string
	logger     zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu      sync.RWMutex
	deliver DeliverFunc
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: opts.Timeout,
				TLSHandshakeTimeout:   5 * time.Second,
			},
		}
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := opts.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPTransport{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		authHeader: "Key " + opts.AuthorizationKey,
		client:     client,
		limiter:    rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker(TransportHTTP, opts.BreakerThreshold, opts.BreakerReset,
			resilience.WithFailureFilter(IsRetryable), resilience.WithEndpoint(opts.BaseURL)),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter only
	}
}

func (t *HTTPTransport) Name() string { return TransportHTTP }

// Open registers the deliver callback. HTTP needs no connection setup.
func (t *HTTPTransport) Open(_ context.Context, deliver DeliverFunc) error {
	t.mu.Lock()
	t.deliver = deliver
	t.mu.Unlock()
	return nil
}

func (t *HTTPTransport) Close(context.Context) error {
	t.mu.Lock()
	t.deliver = nil
	t.mu.Unlock()
	t.client.CloseIdleConnections()
	return nil
}

func endpointFor(env lime.Enveloper) (string, error) {
	switch env.Kind() {
	case lime.KindCommand:
		return "/commands", nil
	case lime.KindMessage:
		return "/messages", nil
	case lime.KindNotification:
		return "/notifications", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedEnvelope, env.Kind())
}

// Send posts env. For commands with a JSON response body the decoded response
// is delivered before Send returns.
func (t *HTTPTransport) Send(ctx context.Context, env lime.Enveloper) error {
	endpoint, err := endpointFor(env)
	if err != nil {
		return err
	}
	body, err := lime.Encode(env)
	if err != nil {
		return &TransportError{Sentinel: ErrBadRequest, Transport: TransportHTTP, Operation: endpoint, Err: err}
	}

	var respBody []byte
	err = t.breaker.Execute(func() error {
		var postErr error
		respBody, postErr = t.post(ctx, endpoint, body)
		return postErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &TransportError{Sentinel: ErrUnavailable, Transport: TransportHTTP, Operation: endpoint, Err: err}
	}
	if err != nil {
		return err
	}

	if env.Kind() != lime.KindCommand || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	resp, err := lime.Decode(respBody)
	if err != nil {
		return &TransportError{Sentinel: ErrBadResponse, Transport: TransportHTTP, Operation: endpoint, Err: err}
	}

	t.mu.RLock()
	deliver := t.deliver
	t.mu.RUnlock()
	if deliver != nil {
		deliver(ctx, resp)
	}
	return nil
}

func (t *HTTPTransport) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	tracer := telemetry.Tracer(telemetry.InstrumentationName)
	rawURL := t.baseURL + endpoint
	ctx, span := tracer.Start(ctx, "blip.http.request", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(telemetry.HTTPMethodKey, http.MethodPost),
		attribute.String(telemetry.HTTPRouteKey, endpoint),
	)
	defer span.End()

	maxAttempts := t.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, &TransportError{Sentinel: ErrUnavailable, Transport: TransportHTTP, Operation: endpoint, Err: err}
		}

		start := time.Now()
		respBody, status, err := t.do(ctx, rawURL, body)
		duration := time.Since(start)
		retry := err != nil && attempt < maxAttempts && IsRetryable(err) && ctx.Err() == nil
		metrics.RecordTransportAttempt(TransportHTTP, endpoint, status, duration, transportErrForMetrics(err), retry)
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.Int(telemetry.HTTPStatusCodeKey, status),
		))

		if err == nil {
			span.SetAttributes(telemetry.HTTPAttributes(http.MethodPost, endpoint, rawURL, status)...)
			span.SetStatus(codes.Ok, "")
			return respBody, nil
		}
		lastErr = err
		if !retry {
			break
		}

		wait := t.backoffFor(attempt - 1)
		t.logger.Debug().
			Err(err).
			Int(log.FieldAttempt, attempt).
			Dur(log.FieldDuration, wait).
			Str(log.FieldPath, endpoint).
			Msg("retrying BLiP request")
		if err := sleepWithContext(ctx, wait); err != nil {
			lastErr = &TransportError{Sentinel: ErrUnavailable, Transport: TransportHTTP, Operation: endpoint, Err: err}
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

// transportErrForMetrics keeps HTTP status failures out of the "error" class.
func transportErrForMetrics(err error) error {
	var terr *TransportError
	if errors.As(err, &terr) && terr.Status > 0 {
		return nil
	}
	return err
}

// do performs one attempt and classifies the outcome.
func (t *HTTPTransport) do(ctx context.Context, rawURL string, body []byte) ([]byte, int, error) {
	endpoint := strings.TrimPrefix(rawURL, t.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &TransportError{Sentinel: ErrBadRequest, Transport: TransportHTTP, Operation: endpoint, Err: err}
	}
	t.applyHeaders(req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Sentinel: ErrUnavailable, Transport: TransportHTTP, Operation: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, readErr := io.ReadAll(resp.Body)
	t.logger.Trace().
		Str(log.FieldPath, endpoint).
		Int(log.FieldStatus, resp.StatusCode).
		Msg("BLiP request finished")

	if sentinel := sentinelForStatus(resp.StatusCode); sentinel != nil {
		return nil, resp.StatusCode, &TransportError{
			Sentinel:  sentinel,
			Transport: TransportHTTP,
			Operation: endpoint,
			Status:    resp.StatusCode,
			Body:      truncate(string(respBody), maxErrorBody),
		}
	}
	if readErr != nil {
		return nil, resp.StatusCode, &TransportError{Sentinel: ErrUnavailable, Transport: TransportHTTP, Operation: endpoint, Status: resp.StatusCode, Err: readErr}
	}
	return respBody, resp.StatusCode, nil
}

func (t *HTTPTransport) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", t.authHeader)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
}

func sentinelForStatus(status int) error {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= http.StatusInternalServerError:
		return ErrUpstreamError
	default:
		return ErrBadRequest
	}
}

// backoffFor doubles the base wait per attempt, saturating at maxBackoff
// (defaultMaxBackoff when unset) before the doubling can overflow, and adds up
// to 20% jitter.
func (t *HTTPTransport) backoffFor(attempt int) time.Duration {
	ceiling := t.maxBackoff
	if ceiling <= 0 {
		ceiling = defaultMaxBackoff
	}
	wait := max(t.backoff, 0)
	for i := 0; i < attempt && wait > 0 && wait < ceiling; i++ {
		wait *= 2
	}
	wait = min(wait, ceiling)
	t.rndMu.Lock()
	jitter := time.Duration(t.rnd.Int63n(int64(wait/5) + 1))
	t.rndMu.Unlock()
	return wait + jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
