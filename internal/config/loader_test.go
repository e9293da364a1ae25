// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "https://http.msging.net", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.True(t, cfg.AutoNotify)
	assert.False(t, cfg.HasCredentials())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "blip.yaml", `
identifier: mybot
accessKey: c2VjcmV0
transport: websocket
commands:
  timeout: 5s
  maxRetries: 4
  autoNotify: false
cache:
  backend: memory
  ttl: 2m
server:
  listenAddr: ":9090"
`)
	t.Setenv("BLIP_COMMAND_TIMEOUT", "7s")
	t.Setenv("LOG_LEVEL", "debug")

	l := NewLoader(path, "dev")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "mybot", cfg.Identifier)
	assert.Equal(t, TransportWebSocket, cfg.Transport)
	assert.Equal(t, 7*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.False(t, cfg.AutoNotify)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HasCredentials())
	assert.Contains(t, l.ConsumedEnvKeys, "BLIP_ACCESS_KEY")
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeFile(t, "blip.yaml", "identifer: typo\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField))
}

func TestLoad_MultipleDocuments(t *testing.T) {
	path := writeFile(t, "blip.yaml", "identifier: a\n---\nidentifier: b\n")
	_, err := NewLoader(path, "").Load()
	assert.True(t, errors.Is(err, ErrMultipleDocuments))
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "blip.yml", "")
	_, err := NewLoader(path, "").Load()
	assert.NoError(t, err)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := writeFile(t, "blip.json", "{}")
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeFile(t, "blip.yaml", "commands:\n  timeout: forever\n")
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "commands.timeout")
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Transport = "smoke-signals"
	cfg.Cache.Backend = "redis"
	cfg.LogLevel = "chatty"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transport")
	assert.Contains(t, err.Error(), "Cache.RedisAddr")
	assert.Contains(t, err.Error(), "LogLevel")
}

func TestHasCredentials_AuthorizationKey(t *testing.T) {
	cfg := Defaults()
	cfg.AuthorizationKey = "Zm9vOmJhcg=="
	assert.True(t, cfg.HasCredentials())
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := NewLoader(testutil.RepoFile(t, "config.example.yaml"), "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "mybot", cfg.Identifier)
	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 600, cfg.Server.WebhookRPM)
	assert.Equal(t, 200*time.Millisecond, cfg.Backoff)
	assert.False(t, cfg.Telemetry.Enabled)
}
