// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package contactsjourney

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/internal/testutil"
	"github.com/ManuGH/blip-sdk-go/lime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedExtension(s *testutil.Sender) *Extension {
	e := New(s)
	e.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestAdd_Set(t *testing.T) {
	s := testutil.NewSender()
	err := fixedExtension(s).Add(context.Background(), AddOptions{
		StateID:         "welcome",
		StateName:       "Welcome",
		PreviousStateID: "start",
		ContactIdentity: "john@0mn.io",
	})
	require.NoError(t, err)

	require.Len(t, s.Processed, 1)
	assert.Empty(t, s.Sent)
	cmd := s.Last()
	assert.Equal(t, lime.MethodSet, cmd.Method)
	assert.Equal(t, URI, cmd.URI)
	assert.Equal(t, "postmaster@analytics.msging.net", cmd.To.String())

	raw, err := json.Marshal(cmd.Resource)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"currentStateId":"welcome","currentStateName":"Welcome",
		"previousStateId":"start","contactIdentity":"john@0mn.io",
		"storageDate":"2025-03-01T12:00:00Z"
	}`, string(raw))
}

func TestAdd_FireAndForget(t *testing.T) {
	s := testutil.NewSender()
	require.NoError(t, fixedExtension(s).Add(context.Background(), AddOptions{StateID: "a", StateName: "A", FireAndForget: true}))

	assert.Empty(t, s.Processed)
	require.Len(t, s.Sent, 1)
	assert.Equal(t, lime.MethodObserve, s.Sent[0].Method)
}

func TestAdd_Validation(t *testing.T) {
	s := testutil.NewSender()
	ext := fixedExtension(s)

	assert.True(t, errors.Is(ext.Add(context.Background(), AddOptions{StateID: " ", StateName: "A"}), base.ErrInvalidArgument))
	assert.True(t, errors.Is(ext.Add(context.Background(), AddOptions{StateID: "a"}), base.ErrInvalidArgument))
	assert.Empty(t, s.Processed)
}
