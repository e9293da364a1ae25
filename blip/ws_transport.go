// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/metrics"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	limeSubprotocol         = "lime"
	defaultOrigin           = "http://localhost/"
	defaultHandshakeTimeout = 15 * time.Second
	defaultCloseTimeout     = 5 * time.Second
	maxHandshakeSteps       = 8
)

// WebSocketOptions configures the LIME WebSocket transport.
type WebSocketOptions struct {
	URL              string
	Origin           string
	Identifier       string
	Domain           string
	Instance         string
	AccessKey        string
	HandshakeTimeout time.Duration
	CloseTimeout     time.Duration
	Logger           zerolog.Logger
}

// WebSocketTransport keeps a LIME session open over a WebSocket connection.
type WebSocketTransport struct {
	opts WebSocketOptions

	mu        sync.RWMutex
	conn      *websocket.Conn
	state     lime.SessionState
	sessionID string
	localNode lime.Node

	writeMu    sync.Mutex
	finished   chan struct{}
	finishOnce sync.Once
	group      *errgroup.Group
	cancel     context.CancelFunc
}

// NewWebSocketTransport creates an unopened transport.
func NewWebSocketTransport(opts WebSocketOptions) *WebSocketTransport {
	if opts.Origin == "" {
		opts.Origin = defaultOrigin
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = defaultCloseTimeout
	}
	return &WebSocketTransport{opts: opts, state: lime.SessionNew}
}

func (t *WebSocketTransport) Name() string { return TransportWebSocket }

// State returns the current session state.
func (t *WebSocketTransport) State() lime.SessionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// LocalNode is the node the server assigned to this session.
func (t *WebSocketTransport) LocalNode() lime.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.localNode
}

func (t *WebSocketTransport) setState(s lime.SessionState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	metrics.SetSessionState(string(s))
	t.opts.Logger.Debug().
		Str(log.FieldSessionID, t.sessionID).
		Str(log.FieldStatus, string(s)).
		Msg("session state changed")
}

// Open dials the server, negotiates the session and starts the read loop.
func (t *WebSocketTransport) Open(ctx context.Context, deliver DeliverFunc) error {
	cfg, err := websocket.NewConfig(t.opts.URL, t.opts.Origin)
	if err != nil {
		return &TransportError{Sentinel: ErrBadRequest, Transport: TransportWebSocket, Operation: "dial", Err: err}
	}
	cfg.Protocol = []string{limeSubprotocol}

	hctx, cancel := context.WithTimeout(ctx, t.opts.HandshakeTimeout)
	defer cancel()

	conn, err := cfg.DialContext(hctx)
	if err != nil {
		return &TransportError{Sentinel: ErrUnavailable, Transport: TransportWebSocket, Operation: "dial", Err: err}
	}
	if deadline, ok := hctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	t.mu.Lock()
	t.conn = conn
	t.finished = make(chan struct{})
	t.finishOnce = sync.Once{}
	t.mu.Unlock()

	if err := t.negotiate(); err != nil {
		t.setState(lime.SessionFailed)
		_ = conn.Close()
		return err
	}
	_ = conn.SetDeadline(time.Time{})

	loopCtx, loopCancel := context.WithCancel(context.WithoutCancel(ctx))
	g, loopCtx := errgroup.WithContext(loopCtx)
	t.group = g
	t.cancel = loopCancel
	g.Go(func() error { return t.readLoop(loopCtx, deliver) })
	return nil
}

// negotiate runs new -> negotiating -> authenticating -> established.
func (t *WebSocketTransport) negotiate() error {
	if err := t.write(&lime.Session{State: lime.SessionNew}); err != nil {
		return err
	}
	t.setState(lime.SessionNew)

	for step := 0; step < maxHandshakeSteps; step++ {
		env, err := t.read()
		if err != nil {
			return &TransportError{Sentinel: ErrUnavailable, Transport: TransportWebSocket, Operation: "handshake", Err: err}
		}
		session, ok := env.(*lime.Session)
		if !ok {
			return fmt.Errorf("%w: unexpected %s during handshake", ErrSessionFailed, env.Kind())
		}
		if session.ID != "" {
			t.sessionID = session.ID
		}
		t.setState(session.State)

		switch session.State {
		case lime.SessionNegotiating:
			// An offer lists options; a confirmation carries the selected ones.
			if len(session.CompressionOptions) == 0 && len(session.EncryptionOptions) == 0 {
				continue
			}
			reply := &lime.Session{
				Envelope:    lime.Envelope{ID: t.sessionID},
				State:       lime.SessionNegotiating,
				Compression: "none",
				Encryption:  "none",
			}
			if err := t.write(reply); err != nil {
				return err
			}
		case lime.SessionAuthenticating:
			reply := &lime.Session{
				Envelope: lime.Envelope{
					ID:   t.sessionID,
					From: lime.NewNode(t.opts.Identifier, t.opts.Domain, t.opts.Instance),
				},
				State:          lime.SessionAuthenticating,
				Scheme:         lime.SchemeKey,
				Authentication: map[string]any{"key": t.opts.AccessKey},
			}
			if err := t.write(reply); err != nil {
				return err
			}
		case lime.SessionEstablished:
			t.mu.Lock()
			t.localNode = session.To
			t.mu.Unlock()
			t.opts.Logger.Info().
				Str(log.FieldSessionID, t.sessionID).
				Str(log.FieldTo, session.To.String()).
				Msg("LIME session established")
			return nil
		case lime.SessionFailed:
			if session.Reason != nil {
				return fmt.Errorf("%w: %s", ErrSessionFailed, session.Reason)
			}
			return ErrSessionFailed
		default:
			return fmt.Errorf("%w: unexpected state %q", ErrSessionFailed, session.State)
		}
	}
	return fmt.Errorf("%w: handshake did not complete in %d steps", ErrSessionFailed, maxHandshakeSteps)
}

func (t *WebSocketTransport) read() (lime.Enveloper, error) {
	var raw []byte
	if err := websocket.Message.Receive(t.conn, &raw); err != nil {
		return nil, err
	}
	return lime.Decode(raw)
}

func (t *WebSocketTransport) write(env lime.Enveloper) error {
	raw, err := lime.Encode(env)
	if err != nil {
		return &TransportError{Sentinel: ErrBadRequest, Transport: TransportWebSocket, Operation: string(env.Kind()), Err: err}
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := websocket.Message.Send(t.conn, string(raw)); err != nil {
		return &TransportError{Sentinel: ErrUnavailable, Transport: TransportWebSocket, Operation: string(env.Kind()), Err: err}
	}
	return nil
}

func (t *WebSocketTransport) readLoop(ctx context.Context, deliver DeliverFunc) error {
	for {
		env, err := t.read()
		if err != nil {
			if errors.Is(err, lime.ErrMalformedEnvelope) {
				t.opts.Logger.Warn().Err(err).Msg("dropping malformed envelope")
				continue
			}
			if t.isFinished() || ctx.Err() != nil {
				return nil
			}
			t.setState(lime.SessionFailed)
			t.markFinished()
			t.opts.Logger.Error().Err(err).Msg("websocket read failed")
			return &TransportError{Sentinel: ErrUnavailable, Transport: TransportWebSocket, Operation: "read", Err: err}
		}

		if session, ok := env.(*lime.Session); ok {
			t.setState(session.State)
			if session.State == lime.SessionFinished || session.State == lime.SessionFailed {
				t.markFinished()
				return nil
			}
			continue
		}
		deliver(ctx, env)
	}
}

func (t *WebSocketTransport) isFinished() bool {
	t.mu.RLock()
	ch := t.finished
	t.mu.RUnlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (t *WebSocketTransport) markFinished() {
	t.finishOnce.Do(func() { close(t.finished) })
}

// Send writes env on the established session.
func (t *WebSocketTransport) Send(ctx context.Context, env lime.Enveloper) error {
	if env.Kind() == lime.KindSession {
		return fmt.Errorf("%w: %s", ErrUnsupportedEnvelope, env.Kind())
	}
	if t.State() != lime.SessionEstablished {
		return &TransportError{Sentinel: ErrUnavailable, Transport: TransportWebSocket, Operation: string(env.Kind()), Err: ErrNotConnected}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := t.write(env)
	metrics.RecordTransportAttempt(TransportWebSocket, string(env.Kind()), 0, time.Since(start), err, false)
	return err
}

// Close sends "finishing" and waits for "finished" up to the close timeout.
func (t *WebSocketTransport) Close(ctx context.Context) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return nil
	}

	if t.State() == lime.SessionEstablished {
		t.setState(lime.SessionFinishing)
		if err := t.write(&lime.Session{Envelope: lime.Envelope{ID: t.sessionID}, State: lime.SessionFinishing}); err != nil {
			t.opts.Logger.Warn().Err(err).Msg("failed to send finishing session")
		} else {
			timer := time.NewTimer(t.opts.CloseTimeout)
			select {
			case <-t.finished:
			case <-timer.C:
				t.opts.Logger.Warn().Msg("server did not finish session in time")
			case <-ctx.Done():
			}
			timer.Stop()
		}
	}

	t.markFinished()
	if t.cancel != nil {
		t.cancel()
	}
	closeErr := conn.Close()

	var loopErr error
	if t.group != nil {
		loopErr = t.group.Wait()
	}
	// The server closes its side after "finished"; a failing close frame is expected then.
	graceful := t.State() == lime.SessionFinished
	if t.State() != lime.SessionFailed {
		t.setState(lime.SessionFinished)
	}

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()

	if loopErr != nil {
		return loopErr
	}
	if graceful {
		return nil
	}
	return closeErr
}
