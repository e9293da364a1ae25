// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package blip is a client for the BLiP messaging platform. It speaks LIME over
// HTTP or WebSocket, correlates command responses, dispatches inbound envelopes
// to receivers and exposes the platform extensions.
package blip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/cache"
	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/metrics"
	"github.com/ManuGH/blip-sdk-go/internal/telemetry"
	"github.com/ManuGH/blip-sdk-go/internal/version"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

type clientState int32

const (
	stateIdle clientState = iota
	stateConnected
	stateClosed
)

// Client sends envelopes to BLiP and routes inbound ones to receivers.
type Client struct {
	opts      Options
	transport Transport
	logger    zerolog.Logger
	state     atomic.Int32

	pendingMu sync.Mutex
	pending   map[string]chan *lime.Command

	inflight singleflight.Group

	// handlersMu orders handler starts against Close so Add never races Wait.
	handlersMu sync.Mutex
	handlers   sync.WaitGroup

	messageReceivers      receiverSet[*lime.Message]
	notificationReceivers receiverSet[*lime.Notification]
	commandReceivers      receiverSet[*lime.Command]

	ext extensions
}

// New validates opts and builds a client. Call Connect before sending.
func New(opts Options) (*Client, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	logger := xglog.WithComponent("blip")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Client{
		opts:    opts,
		logger:  logger,
		pending: make(map[string]chan *lime.Command),
	}

	c.transport = opts.Transport
	if c.transport == nil {
		c.transport, err = c.builtinTransport()
		if err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With().Str(xglog.FieldTransport, c.transport.Name()).Logger()
	c.ext = newExtensions(c)
	return c, nil
}

func (c *Client) builtinTransport() (Transport, error) {
	opts := c.opts
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	switch opts.TransportKind {
	case TransportWebSocket:
		return NewWebSocketTransport(WebSocketOptions{
			URL:        opts.WebSocketURL,
			Identifier: opts.Identifier,
			Domain:     opts.Domain,
			Instance:   opts.Instance,
			AccessKey:  opts.AccessKey,
			Logger:     c.logger,
		}), nil
	default:
		key := opts.AuthorizationKey
		if key == "" {
			var err error
			key, err = AuthorizationKey(opts.Identifier, opts.AccessKey)
			if err != nil {
				return nil, err
			}
		}
		return NewHTTPTransport(HTTPOptions{
			BaseURL:          opts.BaseURL,
			AuthorizationKey: key,
			Timeout:          opts.HTTPTimeout,
			MaxRetries:       opts.MaxRetries,
			Backoff:          opts.Backoff,
			MaxBackoff:       opts.MaxBackoff,
			RateLimit:        opts.RateLimit,
			RateLimitBurst:   opts.RateLimitBurst,
			UserAgent:        userAgent,
			HTTPClient:       opts.HTTPClient,
			Logger:           c.logger,
		}), nil
	}
}

// Identity is the bot identity derived from the options.
func (c *Client) Identity() lime.Identity {
	return lime.NewIdentity(c.opts.Identifier, c.opts.Domain)
}

// Connect opens the transport. Inbound envelopes flow to receivers afterwards.
func (c *Client) Connect(ctx context.Context) error {
	switch clientState(c.state.Load()) {
	case stateConnected:
		return nil
	case stateClosed:
		return ErrClosed
	}
	if err := c.transport.Open(ctx, c.dispatch); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if !c.state.CompareAndSwap(int32(stateIdle), int32(stateConnected)) {
		_ = c.transport.Close(ctx)
		return ErrClosed
	}
	c.logger.Info().Str(xglog.FieldEvent, "client.connected").Msg("connected to BLiP")
	return nil
}

// Close closes the transport, fails pending commands with ErrClosed and waits
// for running handlers.
func (c *Client) Close(ctx context.Context) error {
	c.handlersMu.Lock()
	prev := clientState(c.state.Swap(int32(stateClosed)))
	c.handlersMu.Unlock()
	if prev == stateClosed {
		return nil
	}

	var err error
	if prev == stateConnected {
		err = c.transport.Close(ctx)
	}

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	metrics.SetPendingCommands(0)

	done := make(chan struct{})
	go func() {
		c.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	c.logger.Info().Str(xglog.FieldEvent, "client.closed").Msg("BLiP client closed")
	return err
}

func (c *Client) ready() error {
	switch clientState(c.state.Load()) {
	case stateConnected:
		return nil
	case stateClosed:
		return ErrClosed
	}
	return ErrNotConnected
}

func (c *Client) send(ctx context.Context, env lime.Enveloper) error {
	if err := c.ready(); err != nil {
		return err
	}
	err := c.transport.Send(ctx, env)
	metrics.RecordEnvelopeSent(string(env.Kind()), err)
	return err
}

// SendMessage sends a message without waiting for notifications.
func (c *Client) SendMessage(ctx context.Context, msg *lime.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidOptions)
	}
	return c.send(ctx, msg)
}

// SendNotification sends a notification.
func (c *Client) SendNotification(ctx context.Context, n *lime.Notification) error {
	if n == nil {
		return fmt.Errorf("%w: nil notification", ErrInvalidOptions)
	}
	return c.send(ctx, n)
}

// SendCommand sends a command without waiting for its response.
func (c *Client) SendCommand(ctx context.Context, cmd *lime.Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidOptions)
	}
	return c.send(ctx, cmd)
}

// ProcessCommand sends cmd and waits for the response with the same id. A
// failure response is returned as *CommandError. Identical concurrent GETs
// share one request, and with a cache configured successful GETs are cached
// until they expire or a write lands in the same collection. Pings always
// reach the server.
func (c *Client) ProcessCommand(ctx context.Context, cmd *lime.Command) (*lime.Command, error) {
	if cmd == nil || cmd.Method == "" {
		return nil, fmt.Errorf("%w: command method is required", ErrInvalidOptions)
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	req := *cmd
	if req.ID == "" {
		req.ID = lime.NewID()
	}
	to := req.To.String()

	if req.Method != lime.MethodGet {
		resp, err := c.processCommand(ctx, &req)
		if err == nil && c.opts.Cache != nil && req.URI != "" {
			c.opts.Cache.Delete(context.WithoutCancel(ctx), cache.GenerationKey(to, req.URI))
		}
		return resp, err
	}
	if isPing(req.URI) {
		return c.processCommand(ctx, &req)
	}

	key := c.entryKey(ctx, to, req.URI)
	if resp, ok := c.cached(ctx, key, req.ID); ok {
		return resp, nil
	}

	ch := c.inflight.DoChan(cache.Key(to, req.URI)+"|"+req.Type, func() (any, error) {
		// The shared request outlives any single caller's cancellation.
		resp, err := c.processCommand(context.WithoutCancel(ctx), &req)
		if err == nil {
			c.store(ctx, key, resp)
		}
		return resp, err
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneResponse(res.Val.(*lime.Command), req.ID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isPing(uri string) bool {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	return uri == lime.PingURI
}

// cloneResponse gives a coalesced caller its own copy of the shared response,
// so mutating one caller's resource never leaks into another's.
func cloneResponse(resp *lime.Command, id string) (*lime.Command, error) {
	raw, err := lime.Encode(resp)
	if err != nil {
		return nil, fmt.Errorf("copy response: %w", err)
	}
	env, err := lime.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("copy response: %w", err)
	}
	out, ok := env.(*lime.Command)
	if !ok {
		return nil, fmt.Errorf("%w: response decoded as %s", lime.ErrMalformedEnvelope, env.Kind())
	}
	out.ID = id
	return out, nil
}

// entryKey resolves the cache key of a GET under its collection's current
// generation, starting a new generation when none is stored.
func (c *Client) entryKey(ctx context.Context, to, uri string) string {
	if c.opts.Cache == nil {
		return ""
	}
	genKey := cache.GenerationKey(to, uri)
	gen, ok := c.opts.Cache.Get(ctx, genKey)
	if !ok {
		gen = []byte(lime.NewID())
		c.opts.Cache.Set(context.WithoutCancel(ctx), genKey, gen, c.opts.CacheTTL)
	}
	return cache.EntryKey(to, uri, string(gen))
}

func (c *Client) cached(ctx context.Context, key, id string) (*lime.Command, bool) {
	if c.opts.Cache == nil {
		return nil, false
	}
	raw, ok := c.opts.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	env, err := lime.Decode(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str(xglog.FieldURI, key).Msg("dropping undecodable cache entry")
		c.opts.Cache.Delete(ctx, key)
		return nil, false
	}
	resp, ok := env.(*lime.Command)
	if !ok {
		return nil, false
	}
	resp.ID = id
	return resp, true
}

func (c *Client) store(ctx context.Context, key string, resp *lime.Command) {
	if c.opts.Cache == nil {
		return
	}
	raw, err := lime.Encode(resp)
	if err != nil {
		return
	}
	c.opts.Cache.Set(context.WithoutCancel(ctx), key, raw, c.opts.CacheTTL)
}

func (c *Client) processCommand(ctx context.Context, cmd *lime.Command) (*lime.Command, error) {
	tracer := telemetry.Tracer(telemetry.InstrumentationName)
	ctx, span := tracer.Start(ctx, "blip.command", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(telemetry.CommandAttributes(string(cmd.Method), cmd.URI)...)
	span.SetAttributes(attribute.String(telemetry.LimeIDKey, cmd.ID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
	defer cancel()

	ch := make(chan *lime.Command, 1)
	c.pendingMu.Lock()
	if _, dup := c.pending[cmd.ID]; dup {
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("%w: command id %q is already pending", ErrInvalidOptions, cmd.ID)
	}
	c.pending[cmd.ID] = ch
	metrics.SetPendingCommands(len(c.pending))
	c.pendingMu.Unlock()
	defer c.forget(cmd.ID)

	start := time.Now()
	logger := c.logger.With().
		Str(xglog.FieldEnvelopeID, cmd.ID).
		Str(xglog.FieldMethod, string(cmd.Method)).
		Str(xglog.FieldURI, cmd.URI).
		Logger()

	if err := c.send(ctx, cmd); err != nil {
		metrics.ObserveCommand(string(cmd.Method), "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug().Err(err).Msg("command send failed")
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		metrics.ObserveCommand(string(cmd.Method), string(resp.Status), time.Since(start))
		span.SetAttributes(attribute.String(telemetry.LimeStatusKey, string(resp.Status)))
		if resp.Failed() {
			err := &CommandError{Response: resp}
			if resp.Reason != nil {
				span.SetAttributes(attribute.Int(telemetry.LimeReasonCodeKey, resp.Reason.Code))
			}
			span.SetStatus(codes.Error, err.Error())
			logger.Debug().Err(err).Msg("command failed")
			return nil, err
		}
		span.SetStatus(codes.Ok, "")
		return resp, nil
	case <-ctx.Done():
		metrics.ObserveCommand(string(cmd.Method), "timeout", time.Since(start))
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s %s after %s", ErrCommandTimeout, cmd.Method, cmd.URI, time.Since(start).Round(time.Millisecond))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn().Err(err).Msg("command response not received")
		return nil, err
	}
}

func (c *Client) forget(id string) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	metrics.SetPendingCommands(len(c.pending))
	c.pendingMu.Unlock()
}

// resolve hands a response to its pending caller. It reports false when no
// caller is waiting for the id.
func (c *Client) resolve(resp *lime.Command) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
		metrics.SetPendingCommands(len(c.pending))
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- resp
	}
	return ok
}

// dispatch is the transport callback. Responses resolve inline so the read
// loop never waits on handlers; everything else runs on its own goroutine.
func (c *Client) dispatch(ctx context.Context, env lime.Enveloper) {
	if cmd, ok := env.(*lime.Command); ok && cmd.IsResponse() && c.resolve(cmd) {
		metrics.RecordEnvelopeReceived(string(env.Kind()))
		return
	}
	c.handlersMu.Lock()
	if clientState(c.state.Load()) == stateClosed {
		c.handlersMu.Unlock()
		c.logger.Debug().Str(xglog.FieldKind, string(env.Kind())).Msg("dropping envelope received after close")
		return
	}
	c.handlers.Add(1)
	c.handlersMu.Unlock()
	go func() {
		defer c.handlers.Done()
		if err := c.Deliver(ctx, env); err != nil {
			c.logger.Debug().Err(err).Str(xglog.FieldKind, string(env.Kind())).Msg("receiver failed")
		}
	}()
}

// Deliver routes an inbound envelope: responses resolve pending commands, ping
// requests are answered, and everything else reaches the matching receivers.
// The returned error joins the errors of failed handlers.
func (c *Client) Deliver(ctx context.Context, env lime.Enveloper) error {
	if env == nil {
		return nil
	}
	metrics.RecordEnvelopeReceived(string(env.Kind()))
	ctx = xglog.ContextWithEnvelopeID(ctx, env.Header().ID)

	switch e := env.(type) {
	case *lime.Command:
		if e.IsResponse() && c.resolve(e) {
			return nil
		}
		if !e.IsResponse() && e.Method == lime.MethodGet && e.URI == lime.PingURI {
			return c.replyPing(ctx, e)
		}
		return runHandlers(ctx, c.commandReceivers.matching(e), e)
	case *lime.Message:
		return c.deliverMessage(ctx, e)
	case *lime.Notification:
		return runHandlers(ctx, c.notificationReceivers.matching(e), e)
	default:
		c.logger.Debug().Str(xglog.FieldKind, string(env.Kind())).Msg("ignoring envelope")
		return nil
	}
}

func runHandlers[T lime.Enveloper](ctx context.Context, handlers []Handler[T], env T) error {
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, env); err != nil {
			metrics.RecordReceiverFailure(string(env.Kind()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) deliverMessage(ctx context.Context, msg *lime.Message) error {
	notify := !c.opts.DisableAutoNotify && msg.ID != "" && !msg.From.IsZero()
	if notify {
		c.notify(ctx, msg, lime.EventReceived, nil)
	}

	err := runHandlers(ctx, c.messageReceivers.matching(msg), msg)

	if notify {
		if err != nil {
			c.notify(ctx, msg, lime.EventFailed, &lime.Reason{Code: lime.ReasonApplicationError, Description: err.Error()})
		} else {
			c.notify(ctx, msg, lime.EventConsumed, nil)
		}
	}
	return err
}

func (c *Client) notify(ctx context.Context, msg *lime.Message, event lime.Event, reason *lime.Reason) {
	n := &lime.Notification{
		Envelope: lime.Envelope{ID: msg.ID, To: msg.From},
		Event:    event,
		Reason:   reason,
	}
	if err := c.SendNotification(ctx, n); err != nil {
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldEnvelopeID, msg.ID).
			Str(xglog.FieldEvent, string(event)).
			Msg("failed to send notification")
	}
}

func (c *Client) replyPing(ctx context.Context, req *lime.Command) error {
	resp := &lime.Command{
		Envelope: lime.Envelope{ID: req.ID, To: req.From},
		Method:   lime.MethodGet,
		Status:   lime.StatusSuccess,
		Type:     lime.MediaTypePing,
		Resource: map[string]any{},
	}
	return c.SendCommand(ctx, resp)
}
