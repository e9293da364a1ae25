// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package threads

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/internal/testutil"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ana = lime.NewIdentity("ana", "0mn.io")
	bob = lime.NewIdentity("bob", "0mn.io")
)

func TestCreateThread(t *testing.T) {
	s := testutil.NewSender().RespondWith(lime.MediaTypeJSON, map[string]any{
		"id":            "th-1",
		"ownerIdentity": "bot@msging.net",
		"participants":  []any{"ana@0mn.io", "bob@0mn.io"},
	})
	th, err := New(s).CreateThread(context.Background(), []lime.Identity{ana, bob})
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, "th-1", th.ID)
	assert.Equal(t, []string{"ana@0mn.io", "bob@0mn.io"}, th.Participants)

	cmd := s.Last()
	assert.Equal(t, "/threads", cmd.URI)
	assert.Equal(t, "postmaster@threads.msging.net", cmd.To.String())
	assert.Equal(t, Thread{Participants: []string{"ana@0mn.io", "bob@0mn.io"}}, cmd.Resource)

	_, err = New(s).CreateThread(context.Background(), nil)
	assert.True(t, errors.Is(err, base.ErrInvalidArgument))
}

func TestParticipants(t *testing.T) {
	s := testutil.NewSender()
	ext := New(s)
	ctx := context.Background()

	require.NoError(t, ext.AddParticipant(ctx, "th-1", ana))
	assert.Equal(t, "/threads/th-1/participants", s.Last().URI)
	assert.Equal(t, map[string]string{"value": "ana@0mn.io"}, s.Last().Resource)

	require.NoError(t, ext.RemoveParticipant(ctx, "th-1", ana))
	assert.Equal(t, "/threads/th-1/participants/ana%400mn.io", s.Last().URI)

	assert.True(t, errors.Is(ext.AddParticipant(ctx, "", ana), base.ErrInvalidArgument))
	assert.True(t, errors.Is(ext.RemoveParticipant(ctx, "th-1", lime.Identity{}), base.ErrInvalidArgument))
}

func TestGetAndDelete(t *testing.T) {
	s := testutil.NewSender()
	ext := New(s)
	ctx := context.Background()

	th, err := ext.GetThread(ctx, "th-1")
	require.NoError(t, err)
	assert.Nil(t, th)
	assert.Equal(t, "/threads/th-1", s.Last().URI)

	require.NoError(t, ext.DeleteThread(ctx, "th-1"))
	assert.Equal(t, lime.MethodDelete, s.Last().Method)

	s.RespondWith(lime.MediaTypeCollection, map[string]any{
		"total": 1,
		"items": []any{map[string]any{"id": "th-1", "participants": []any{}}},
	})
	list, err := ext.GetThreads(ctx, base.Page{Take: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/threads?$skip=0&$take=10", s.Last().URI)
}
