// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// limeServer is a minimal LIME server: it negotiates, authenticates with a
// key, answers commands and records everything else it receives.
type limeServer struct {
	t         *testing.T
	accessKey string
	failAuth  bool
	push      chan lime.Enveloper

	mu       sync.Mutex
	received []lime.Enveloper
	auth     *lime.Session
}

func newLimeServer(t *testing.T, accessKey string) (*limeServer, string) {
	ls := &limeServer{t: t, accessKey: accessKey, push: make(chan lime.Enveloper, 8)}
	srv := httptest.NewServer(websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error {
			for _, p := range cfg.Protocol {
				if p == limeSubprotocol {
					cfg.Protocol = []string{limeSubprotocol}
					return nil
				}
			}
			return websocket.ErrBadWebSocketProtocol
		},
		Handler: ls.serve,
	})
	t.Cleanup(srv.Close)
	return ls, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (ls *limeServer) send(ws *websocket.Conn, env lime.Enveloper) {
	raw, err := lime.Encode(env)
	if err != nil {
		ls.t.Errorf("encode: %v", err)
		return
	}
	_ = websocket.Message.Send(ws, string(raw))
}

func (ls *limeServer) recv(ws *websocket.Conn) (lime.Enveloper, bool) {
	var raw string
	if err := websocket.Message.Receive(ws, &raw); err != nil {
		return nil, false
	}
	env, err := lime.Decode([]byte(raw))
	if err != nil {
		ls.t.Errorf("decode %q: %v", raw, err)
		return nil, false
	}
	return env, true
}

func (ls *limeServer) serve(ws *websocket.Conn) {
	const sid = "session-1"

	if env, ok := ls.recv(ws); !ok || env.(*lime.Session).State != lime.SessionNew {
		return
	}
	ls.send(ws, &lime.Session{
		Envelope:           lime.Envelope{ID: sid},
		State:              lime.SessionNegotiating,
		CompressionOptions: []string{"none"},
		EncryptionOptions:  []string{"none"},
	})
	if _, ok := ls.recv(ws); !ok {
		return
	}
	ls.send(ws, &lime.Session{Envelope: lime.Envelope{ID: sid}, State: lime.SessionNegotiating, Compression: "none", Encryption: "none"})
	ls.send(ws, &lime.Session{Envelope: lime.Envelope{ID: sid}, State: lime.SessionAuthenticating})

	env, ok := ls.recv(ws)
	if !ok {
		return
	}
	auth := env.(*lime.Session)
	ls.mu.Lock()
	ls.auth = auth
	ls.mu.Unlock()

	if ls.failAuth || auth.Authentication["key"] != ls.accessKey {
		ls.send(ws, &lime.Session{
			Envelope: lime.Envelope{ID: sid},
			State:    lime.SessionFailed,
			Reason:   &lime.Reason{Code: lime.ReasonSessionAuthenticationFailed, Description: "Invalid key"},
		})
		return
	}
	ls.send(ws, &lime.Session{
		Envelope: lime.Envelope{ID: sid, From: lime.MustParseNode("postmaster@msging.net/#az-iris1"), To: lime.MustParseNode("bot@msging.net/default")},
		State:    lime.SessionEstablished,
	})

	incoming := make(chan lime.Enveloper)
	go func() {
		defer close(incoming)
		for {
			env, ok := ls.recv(ws)
			if !ok {
				return
			}
			incoming <- env
		}
	}()

	for {
		select {
		case env := <-ls.push:
			ls.send(ws, env)
		case env, ok := <-incoming:
			if !ok {
				return
			}
			switch e := env.(type) {
			case *lime.Session:
				if e.State == lime.SessionFinishing {
					ls.send(ws, &lime.Session{Envelope: lime.Envelope{ID: sid}, State: lime.SessionFinished})
					return
				}
			case *lime.Command:
				if !e.IsResponse() {
					ls.send(ws, &lime.Command{
						Envelope: lime.Envelope{ID: e.ID, From: e.To},
						Method:   e.Method,
						Status:   lime.StatusSuccess,
						Type:     lime.MediaTypeJSON,
						Resource: map[string]any{"uri": e.URI},
					})
					continue
				}
				ls.record(env)
			default:
				ls.record(env)
			}
		}
	}
}

func (ls *limeServer) record(env lime.Enveloper) {
	ls.mu.Lock()
	ls.received = append(ls.received, env)
	ls.mu.Unlock()
}

func (ls *limeServer) notifications() []*lime.Notification {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	var out []*lime.Notification
	for _, env := range ls.received {
		if n, ok := env.(*lime.Notification); ok {
			out = append(out, n)
		}
	}
	return out
}

func newWSClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{
		TransportKind:  TransportWebSocket,
		WebSocketURL:   url,
		Identifier:     "bot",
		AccessKey:      "c2VjcmV0",
		CommandTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestWebSocketTransport_Session(t *testing.T) {
	ls, url := newLimeServer(t, "c2VjcmV0")
	c := newWSClient(t, url)
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	ws := c.transport.(*WebSocketTransport)
	assert.Equal(t, lime.SessionEstablished, ws.State())
	assert.Equal(t, "bot@msging.net/default", ws.LocalNode().String())

	ls.mu.Lock()
	auth := ls.auth
	ls.mu.Unlock()
	require.NotNil(t, auth)
	assert.Equal(t, lime.SchemeKey, auth.Scheme)
	assert.Equal(t, "bot@msging.net/default", auth.From.String())

	resp, err := c.ProcessCommand(ctx, &lime.Command{Method: lime.MethodGet, URI: "/contacts"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uri": "/contacts"}, resp.Resource)

	got := make(chan *lime.Message, 1)
	c.AddMessageReceiver(nil, func(_ context.Context, m *lime.Message) error {
		got <- m
		return nil
	})
	ls.push <- &lime.Message{
		Envelope: lime.Envelope{ID: "m-1", From: lime.MustParseNode("john@0mn.io/phone"), To: lime.MustParseNode("bot@msging.net")},
		Type:     lime.MediaTypeTextPlain,
		Content:  "hello bot",
	}
	select {
	case m := <-got:
		assert.Equal(t, "hello bot", m.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	require.Eventually(t, func() bool { return len(ls.notifications()) == 2 }, 2*time.Second, 5*time.Millisecond)
	ns := ls.notifications()
	assert.Equal(t, lime.EventReceived, ns[0].Event)
	assert.Equal(t, lime.EventConsumed, ns[1].Event)

	require.NoError(t, c.Close(ctx))
	assert.Equal(t, lime.SessionFinished, ws.State())
}

func TestWebSocketTransport_AuthenticationFailure(t *testing.T) {
	_, url := newLimeServer(t, "other-key")
	c := newWSClient(t, url)

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionFailed)
	assert.Contains(t, err.Error(), "Invalid key")
	assert.Equal(t, lime.SessionFailed, c.transport.(*WebSocketTransport).State())
}

func TestWebSocketTransport_SendBeforeEstablished(t *testing.T) {
	tr := NewWebSocketTransport(WebSocketOptions{URL: "ws://127.0.0.1:1"})
	err := tr.Send(context.Background(), &lime.Message{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, tr.Send(context.Background(), &lime.Session{}), ErrUnsupportedEnvelope)
	require.NoError(t, tr.Close(context.Background()))
}

func TestWebSocketTransport_DialFailure(t *testing.T) {
	tr := NewWebSocketTransport(WebSocketOptions{URL: "ws://127.0.0.1:1", HandshakeTimeout: time.Second})
	err := tr.Open(context.Background(), func(context.Context, lime.Enveloper) {})
	assert.ErrorIs(t, err, ErrUnavailable)
}
