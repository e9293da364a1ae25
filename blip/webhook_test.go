// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/blip-sdk-go/internal/middleware"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postWebhook(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.1.1:5555"
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_DeliversMessage(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(t, ft)

	var got *lime.Message
	c.AddMessageReceiver(nil, func(ctx context.Context, m *lime.Message) error {
		got = m
		return nil
	})

	rec := postWebhook(c.WebhookHandler(WebhookOptions{}), "/messages",
		`{"id":"m-1","from":"john@0mn.io/phone","to":"bot@msging.net","type":"text/plain","content":"hello"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Content)
	assert.Len(t, ft.notifications(), 2)
}

func TestWebhook_Notification(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	var events []lime.Event
	c.AddNotificationReceiver(nil, func(_ context.Context, n *lime.Notification) error {
		events = append(events, n.Event)
		return nil
	})

	rec := postWebhook(c.WebhookHandler(WebhookOptions{}), "/notifications", `{"id":"m-1","from":"john@0mn.io","event":"consumed"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []lime.Event{lime.EventConsumed}, events)
}

func TestWebhook_ReceiverErrorStillAccepted(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	c.AddCommandReceiver(nil, func(context.Context, *lime.Command) error { return errors.New("boom") })

	rec := postWebhook(c.WebhookHandler(WebhookOptions{}), "/commands", `{"id":"c-1","method":"set","uri":"/x"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWebhook_Rejects(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	h := c.WebhookHandler(WebhookOptions{MaxBodyBytes: 64})

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"wrong kind", "/messages", `{"id":"1","event":"received"}`, http.StatusBadRequest},
		{"malformed", "/notifications", `{nope`, http.StatusBadRequest},
		{"too large", "/messages", `{"type":"text/plain","content":"` + strings.Repeat("x", 100) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(h, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook_RateLimited(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	h := c.WebhookHandler(WebhookOptions{RequestsPerMinute: 1})

	body := `{"id":"n","event":"received"}`
	assert.Equal(t, http.StatusAccepted, postWebhook(h, "/notifications", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, postWebhook(h, "/notifications", body).Code)
}
