// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/blip-sdk-go/blip"
	"github.com/ManuGH/blip-sdk-go/internal/config"
	"github.com/ManuGH/blip-sdk-go/internal/health"
	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/telemetry"
	"github.com/ManuGH/blip-sdk-go/internal/version"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

func (c *CLI) newServeCmd() *cobra.Command {
	var echo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver",
		Long: `Run an HTTP server that accepts BLiP webhook posts under /webhook and
exposes /metrics, /healthz and /readyz. With --echo, text messages are sent
back to their sender. The log level follows config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context(), echo)
		},
	}
	cmd.Flags().BoolVar(&echo, "echo", true, "reply to text messages with the same text")
	return cmd
}

func (c *CLI) serve(ctx context.Context, echo bool) error {
	cfg := c.cfg
	logger := xglog.WithComponent("serve")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "blipctl",
		ServiceVersion: version.Version,
		Environment:    config.ParseString("BLIP_ENVIRONMENT", "production"),
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		Bot: telemetry.Bot{
			Identifier: cfg.Identifier,
			Domain:     cfg.Domain,
			Instance:   cfg.Instance,
			Transport:  cfg.Transport,
		},
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	client, closeClient, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer closeClient()

	if echo {
		client.AddMessageReceiver(blip.MessageOfType(lime.MediaTypeTextPlain), echoHandler(client))
	}

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewOptionalChecker("blip", pingProbe(client, cfg.Domain)))

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           newServeHandler(client, hm, cfg.Server.WebhookRPM),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	holder := config.NewHolder(cfg, c.loader)
	if err := holder.StartWatcher(gctx); err != nil {
		logger.Warn().Err(err).Msg("config hot reload disabled")
	}
	updates := make(chan config.AppConfig, 1)
	holder.RegisterListener(updates)

	g.Go(func() error {
		c.applyReloads(gctx, updates, logger)
		return nil
	})
	g.Go(func() error {
		logger.Info().
			Str("event", "startup").
			Str("addr", srv.Addr).
			Str(xglog.FieldTransport, cfg.Transport).
			Msg("serving BLiP webhook")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	holder.Wait()
	logger.Info().Msg("server exiting")
	return err
}

// newServeHandler mounts the webhook next to the operational endpoints.
func newServeHandler(client *blip.Client, hm *health.Manager, webhookRPM int) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	r.Mount("/webhook", client.WebhookHandler(blip.WebhookOptions{
		RequestsPerMinute: webhookRPM,
		ServiceName:       "blipctl-webhook",
	}))
	return r
}

// applyReloads keeps the global log level in line with the config file.
// An explicit --log-level wins over the file.
func (c *CLI) applyReloads(ctx context.Context, updates <-chan config.AppConfig, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-updates:
			if c.logLevel != "" {
				continue
			}
			if err := xglog.SetLevel(cfg.LogLevel); err != nil {
				logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
				continue
			}
			logger.Info().Str("level", cfg.LogLevel).Msg("log level updated")
		}
	}
}

func echoHandler(client *blip.Client) blip.MessageHandler {
	return func(ctx context.Context, msg *lime.Message) error {
		if msg.From.IsZero() {
			return nil
		}
		return client.SendMessage(ctx, &lime.Message{
			Envelope: lime.Envelope{ID: lime.NewID(), To: msg.From},
			Type:     msg.Type,
			Content:  msg.Content,
		})
	}
}

func pingProbe(client *blip.Client, domain string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := client.ProcessCommand(ctx, &lime.Command{
			Envelope: lime.Envelope{To: lime.NewNode("postmaster", domain, "")},
			Method:   lime.MethodGet,
			URI:      lime.PingURI,
		})
		return err
	}
}
