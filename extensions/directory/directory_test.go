// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package directory

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

func TestGetDirectoryAccount(t *testing.T) {
	s := testutil.NewSender().RespondWith(lime.MediaTypeAccount, map[string]any{
		"identity": "1234@messenger.gw.msging.net",
		"fullName": "Jane Roe",
		"photoUri": "https://example.com/p.png",
		"gender":   "female",
		"timezone": -3.0,
	})
	acc, err := New(s).GetDirectoryAccount(context.Background(), lime.NewIdentity("1234", "messenger.gw.msging.net"))
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "Jane Roe", acc.FullName)
	assert.Equal(t, map[string]any{"gender": "female", "timezone": -3.0}, acc.Extra)

	cmd := s.Last()
	assert.Equal(t, "lime://messenger.gw.msging.net/accounts/1234", cmd.URI)
	assert.Equal(t, "postmaster@messenger.gw.msging.net", cmd.To.String())
}

func TestGetDirectoryAccount_EscapesName(t *testing.T) {
	s := testutil.NewSender()
	acc, err := New(s).GetDirectoryAccount(context.Background(), lime.NewIdentity("a b/c", "0mn.io"))
	require.NoError(t, err)
	assert.Nil(t, acc)
	assert.Equal(t, "lime://0mn.io/accounts/a%20b%2Fc", s.Last().URI)
}

func TestGetDirectoryAccount_Invalid(t *testing.T) {
	s := testutil.NewSender()
	_, err := New(s).GetDirectoryAccount(context.Background(), lime.Identity{})
	assert.True(t, errors.Is(err, base.ErrInvalidArgument))

	_, err = New(s).GetDirectoryAccount(context.Background(), lime.Identity{Name: "x", Domain: " "})
	assert.True(t, errors.Is(err, base.ErrInvalidArgument))
	assert.Empty(t, s.Processed)
}
