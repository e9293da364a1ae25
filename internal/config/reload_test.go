// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHolder_Reload(t *testing.T) {
	path := writeFile(t, "blip.yaml", "logLevel: info\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().LogLevel)
	select {
	case cfg := <-ch:
		assert.Equal(t, "debug", cfg.LogLevel)
	default:
		t.Fatal("listener not notified")
	}
}

func TestHolder_ReloadKeepsOldOnError(t *testing.T) {
	path := writeFile(t, "blip.yaml", "logLevel: warn\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: [\n"), 0o600))
	assert.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "warn", h.Get().LogLevel)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeFile(t, "blip.yaml", "logLevel: info\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("logLevel: error\n"), 0o600))
	assert.Eventually(t, func() bool {
		return h.Get().LogLevel == "error"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	h.Wait()
}

func TestHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "dev"))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Wait()
}
