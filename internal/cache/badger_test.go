// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCache_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := NewBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	c.Set(ctx, "k", []byte("v"), time.Hour)
	require.NoError(t, c.Close())

	c, err = NewBadgerCache(dir, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	val, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(val))
	assert.Equal(t, 1, c.Stats().CurrentSize)
}

func TestBadgerCache_DeleteAndMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewBadgerCache(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	c.Set(ctx, "k", []byte("v"), 0)
	c.Delete(ctx, "k")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.CurrentSize)
}

func TestNewBadgerCache_RequiresPath(t *testing.T) {
	_, err := NewBadgerCache("", zerolog.Nop())
	assert.Error(t, err)
}
