// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestConfigure_ServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "blip-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("client")
	l.Info().Msg("hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "blip-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "client", entry[FieldComponent])
	assert.Equal(t, "hello", entry["message"])
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	assert.Error(t, SetLevel("loud"))
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithEnvelopeID(ctx, "env-9")

	l := WithContext(ctx, base)
	l.Info().Msg("x")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "env-9", entry[FieldEnvelopeID])
}

func TestContextHelpers_NilSafe(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	ctx := ContextWithRequestID(nil, "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
	assert.Equal(t, "", EnvelopeIDFromContext(context.Background()))
	//nolint:staticcheck
	assert.Equal(t, "", RequestIDFromContext(nil))
}

func TestDerive(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Derive(func(c *zerolog.Context) { *c = c.Str(FieldTransport, "http") })
	l.Info().Msg("derived")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "http", entry[FieldTransport])
}
