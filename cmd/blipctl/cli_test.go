// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/config"
	xglog "github.com/ManuGH/blip-sdk-go/internal/log"
	"github.com/ManuGH/blip-sdk-go/internal/version"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBLiP is a minimal BLiP HTTP API. GET commands answer from resources;
// unknown URIs fail with "resource not found".
type fakeBLiP struct {
	mu        sync.Mutex
	commands  []lime.Command
	messages  []lime.Message
	resources map[string]any
	srv       *httptest.Server
}

func newFakeBLiP(t *testing.T) *fakeBLiP {
	t.Helper()
	f := &fakeBLiP{resources: map[string]any{lime.PingURI: map[string]any{}}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBLiP) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/messages":
		var msg lime.Message
		if json.Unmarshal(body, &msg) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.messages = append(f.messages, msg)
		w.WriteHeader(http.StatusAccepted)
	case "/notifications":
		w.WriteHeader(http.StatusAccepted)
	case "/commands":
		var cmd lime.Command
		if json.Unmarshal(body, &cmd) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.commands = append(f.commands, cmd)

		resp := lime.Command{Envelope: lime.Envelope{ID: cmd.ID}, Method: cmd.Method, Status: lime.StatusSuccess}
		if cmd.Method == lime.MethodGet {
			if res, ok := f.resources[cmd.URI]; ok {
				resp.Type = lime.MediaTypeJSON
				resp.Resource = res
			} else {
				resp.Status = lime.StatusFailure
				resp.Reason = &lime.Reason{Code: lime.ReasonCommandResourceNotFound, Description: "Resource not found"}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&resp)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBLiP) lastCommand(t *testing.T) lime.Command {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.commands)
	return f.commands[len(f.commands)-1]
}

func (f *fakeBLiP) sentMessages() []lime.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lime.Message(nil), f.messages...)
}

// useFakeBLiP points the environment-driven config at a fake server.
func useFakeBLiP(t *testing.T) *fakeBLiP {
	t.Helper()
	f := newFakeBLiP(t)
	t.Setenv("BLIP_CONFIG", "")
	t.Setenv("BLIP_BASE_URL", f.srv.URL)
	t.Setenv("BLIP_AUTHORIZATION_KEY", "Ym90OnNlY3JldA==")
	t.Setenv("BLIP_MAX_RETRIES", "0")
	return f
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { xglog.Configure(xglog.Config{Output: io.Discard}) })

	cli := newCLI()
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestVersion_JSON(t *testing.T) {
	out, err := runCLI(t, "version", "--json")
	require.NoError(t, err)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
	assert.Equal(t, version.Commit, info.Commit)
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("BLIP_CONFIG", "")
	t.Setenv("BLIP_IDENTIFIER", "")
	t.Setenv("BLIP_ACCESS_KEY", "")
	t.Setenv("BLIP_AUTHORIZATION_KEY", "")

	_, err := runCLI(t, "bucket", "get", "x")
	assert.ErrorIs(t, err, errMissingCredentials)
}

func TestSend_TextMessage(t *testing.T) {
	f := useFakeBLiP(t)

	out, err := runCLI(t, "send", "john@0mn.io", "hello there")
	require.NoError(t, err)

	msgs := f.sentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "john@0mn.io", msgs[0].To.String())
	assert.Equal(t, lime.MediaTypeTextPlain, msgs[0].Type)
	assert.Equal(t, "hello there", msgs[0].Content)
	assert.Equal(t, msgs[0].ID, strings.TrimSpace(out))
}

func TestSend_RejectsInvalidJSON(t *testing.T) {
	f := useFakeBLiP(t)

	_, err := runCLI(t, "send", "john@0mn.io", "{nope", "--type", lime.MediaTypeJSON)
	assert.Error(t, err)
	assert.Empty(t, f.sentMessages())
}

func TestCommand_GetJSON(t *testing.T) {
	f := useFakeBLiP(t)
	f.resources["/contacts"] = map[string]any{"total": 0, "items": []any{}}

	out, err := runCLI(t, "command", "GET", "/contacts", "--to", "postmaster@crm.msging.net", "--json")
	require.NoError(t, err)

	var resp lime.Command
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, lime.StatusSuccess, resp.Status)

	sent := f.lastCommand(t)
	assert.Equal(t, lime.MethodGet, sent.Method)
	assert.Equal(t, "postmaster@crm.msging.net", sent.To.String())
}

func TestCommand_Validation(t *testing.T) {
	useFakeBLiP(t)

	_, err := runCLI(t, "command", "observe", "/x")
	assert.ErrorContains(t, err, "unsupported method")

	_, err = runCLI(t, "command", "get", "/x", "--resource", `{"a":1}`)
	assert.ErrorContains(t, err, "only valid for set and merge")
}

func TestCommand_FailureIsReturned(t *testing.T) {
	useFakeBLiP(t)

	_, err := runCLI(t, "command", "get", "/missing")
	require.Error(t, err)
	assert.True(t, lime.IsNotFound(err))
}

func TestBucketGet_WritesOutFile(t *testing.T) {
	f := useFakeBLiP(t)
	f.resources["/buckets/greeting"] = map[string]any{"text": "hi"}
	out := filepath.Join(t.TempDir(), "greeting.json")

	stdout, err := runCLI(t, "bucket", "get", "greeting", "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(data))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBucketSetAndDelete(t *testing.T) {
	f := useFakeBLiP(t)

	_, err := runCLI(t, "bucket", "set", "greeting", `{"text":"hi"}`, "--expiration", "1m")
	require.NoError(t, err)
	sent := f.lastCommand(t)
	assert.Equal(t, lime.MethodSet, sent.Method)
	assert.Equal(t, "/buckets/greeting?expiration=60000", sent.URI)
	assert.Equal(t, lime.MediaTypeJSON, sent.Type)
	assert.Equal(t, map[string]any{"text": "hi"}, sent.Resource)

	_, err = runCLI(t, "bucket", "delete", "greeting")
	require.NoError(t, err)
	sent = f.lastCommand(t)
	assert.Equal(t, lime.MethodDelete, sent.Method)
	assert.Equal(t, "/buckets/greeting", sent.URI)
}

func TestTrack(t *testing.T) {
	f := useFakeBLiP(t)

	_, err := runCLI(t, "track", "onboarding", "finished", "--identity", "john@0mn.io", "--extra", "plan=pro")
	require.NoError(t, err)

	sent := f.lastCommand(t)
	assert.Equal(t, "/events", sent.URI)
	assert.Equal(t, "postmaster@analytics.msging.net", sent.To.String())
	assert.Equal(t, lime.MediaTypeEventTrack, sent.Type)
	assert.Equal(t, map[string]any{
		"category": "onboarding",
		"action":   "finished",
		"identity": "john@0mn.io",
		"extras":   map[string]any{"plan": "pro"},
	}, sent.Resource)
}

func TestContactGet(t *testing.T) {
	f := useFakeBLiP(t)
	f.resources["/contacts/john%400mn.io"] = map[string]any{"identity": "john@0mn.io", "name": "John"}

	out, err := runCLI(t, "contact", "get", "john@0mn.io")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "John"`)

	_, err = runCLI(t, "contact", "get", "john@0mn.io/phone")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	f := newFakeBLiP(t)
	t.Setenv("BLIP_BASE_URL", "")
	t.Setenv("BLIP_AUTHORIZATION_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "blip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseUrl: "+f.srv.URL+"\nauthorizationKey: Ym90OnNlY3JldA==\n"), 0o600))

	_, err := runCLI(t, "--config", path, "bucket", "delete", "x")
	require.NoError(t, err)
	assert.Equal(t, "/buckets/x", f.lastCommand(t).URI)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("baseUrll: x\n"), 0o600))
	_, err = runCLI(t, "--config", bad, "bucket", "delete", "x")
	assert.ErrorIs(t, err, config.ErrUnknownConfigField)
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResourceBytes(t *testing.T) {
	data, err := resourceBytes(&lime.Command{Type: lime.MediaTypeTextPlain, Resource: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))

	data, err = resourceBytes(&lime.Command{Type: lime.MediaTypeJSON, Resource: map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestApplyReloads_SetsLogLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan config.AppConfig, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		(&CLI{}).applyReloads(ctx, updates, zerolog.Nop())
	}()

	updates <- config.AppConfig{LogLevel: "debug"}
	assert.Eventually(t, func() bool { return zerolog.GlobalLevel() == zerolog.DebugLevel }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
