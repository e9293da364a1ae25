// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/blip-sdk-go/blip"
	"github.com/ManuGH/blip-sdk-go/internal/cache"
	"github.com/ManuGH/blip-sdk-go/internal/config"
	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var errMissingCredentials = errors.New("BLiP credentials are not configured (set BLIP_IDENTIFIER and BLIP_ACCESS_KEY, or BLIP_AUTHORIZATION_KEY)")

// CLI is the blipctl command tree.
type CLI struct {
	rootCmd *cobra.Command

	configPath string
	logLevel   string
	jsonOut    bool

	loader *config.Loader
	cfg    config.AppConfig
}

func newCLI() *CLI {
	c := &CLI{}
	root := &cobra.Command{
		Use:           "blipctl",
		Short:         "Talk to the BLiP messaging platform",
		Long:          "blipctl sends messages and commands to BLiP, manages bot resources and runs a webhook receiver.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to config file (YAML); defaults to $BLIP_CONFIG")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "emit JSON")

	root.AddCommand(
		c.newSendCmd(),
		c.newCommandCmd(),
		c.newBucketCmd(),
		c.newTrackCmd(),
		c.newContactCmd(),
		c.newServeCmd(),
		c.newVersionCmd(),
	)
	c.rootCmd = root
	return c
}

// Execute runs the command tree with ctx.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs replaces os.Args. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects stdout and stderr. Used for testing.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path := strings.TrimSpace(c.configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString("BLIP_CONFIG", ""))
	}

	c.loader = config.NewLoader(path, version.Version)
	cfg, err := c.loader.Load()
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	c.cfg = cfg

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  cmd.ErrOrStderr(),
		Service: "blipctl",
		Version: version.Version,
	})
	return nil
}

// connect builds a client from the loaded config and opens it. The returned
// func closes the client and the cache backend.
func (c *CLI) connect(ctx context.Context) (*blip.Client, func(), error) {
	cfg := c.cfg
	if !cfg.HasCredentials() {
		return nil, nil, errMissingCredentials
	}
	logger := xglog.WithComponent("blipctl")

	store, err := cache.New(cache.Config{
		Backend:         cfg.Cache.Backend,
		CleanupInterval: cfg.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
		BadgerPath: cfg.Cache.BadgerPath,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	client, err := blip.New(blip.Options{
		Identifier:        cfg.Identifier,
		AccessKey:         cfg.AccessKey,
		AuthorizationKey:  cfg.AuthorizationKey,
		Domain:            cfg.Domain,
		Instance:          cfg.Instance,
		TransportKind:     cfg.Transport,
		BaseURL:           cfg.BaseURL,
		WebSocketURL:      cfg.WebSocketURL,
		CommandTimeout:    cfg.CommandTimeout,
		HTTPTimeout:       cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		Backoff:           cfg.Backoff,
		MaxBackoff:        cfg.MaxBackoff,
		RateLimit:         rate.Limit(cfg.RateLimit),
		RateLimitBurst:    cfg.RateBurst,
		DisableAutoNotify: !cfg.AutoNotify,
		Cache:             store,
		CacheTTL:          cfg.Cache.TTL,
		Logger:            &logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if err := client.Connect(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	closeAll := func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTPTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("close client")
		}
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close cache")
		}
	}
	return client, closeAll, nil
}

// render prints v as indented JSON with --json, and in a short text form otherwise.
func (c *CLI) render(w io.Writer, v any) error {
	if c.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, t)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, t.String())
		return err
	default:
		raw, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
}
