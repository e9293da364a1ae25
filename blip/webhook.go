// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/middleware"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/go-chi/chi/v5"
)

const defaultWebhookBodyLimit = 1 << 20

// WebhookOptions configures the handler returned by Client.WebhookHandler.
type WebhookOptions struct {
	// MaxBodyBytes caps each request body. Defaults to 1 MiB.
	MaxBodyBytes int64
	// RequestsPerMinute limits requests per client IP; 0 disables limiting.
	RequestsPerMinute int
	// ServiceName names the server spans. Defaults to "blip-webhook".
	ServiceName string
}

// WebhookHandler returns an http.Handler for the BLiP HTTP webhook. BLiP
// posts messages, notifications and commands to /messages, /notifications
// and /commands; each envelope is handed to Deliver and answered with 202.
// Receiver errors are logged, not returned to BLiP.
func (c *Client) WebhookHandler(opts WebhookOptions) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultWebhookBodyLimit
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "blip-webhook"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: opts.RequestsPerMinute,
		WindowSize:   time.Minute,
	}))
	r.Use(middleware.OTelHTTP(opts.ServiceName))

	r.Post("/messages", c.webhookEndpoint(lime.KindMessage, opts.MaxBodyBytes))
	r.Post("/notifications", c.webhookEndpoint(lime.KindNotification, opts.MaxBodyBytes))
	r.Post("/commands", c.webhookEndpoint(lime.KindCommand, opts.MaxBodyBytes))
	return r
}

func (c *Client) webhookEndpoint(kind lime.Kind, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		logger := xglog.WithContext(r.Context(), c.logger).With().
			Str(xglog.FieldPath, r.URL.Path).
			Logger()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable request body"})
			return
		}

		env, err := lime.Decode(raw)
		if err == nil && env.Kind() != kind {
			err = fmt.Errorf("%w: got %s on the %s endpoint", ErrUnsupportedEnvelope, env.Kind(), kind)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("rejected webhook envelope")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		if err := c.Deliver(r.Context(), env); err != nil {
			logger.Warn().
				Err(err).
				Str(xglog.FieldEnvelopeID, env.Header().ID).
				Str(xglog.FieldKind, string(kind)).
				Msg("webhook receiver failed")
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
