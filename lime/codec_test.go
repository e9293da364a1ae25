// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Kinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"message", `{"id":"1","to":"a@b.c","type":"text/plain","content":"hi"}`, KindMessage},
		{"notification", `{"id":"1","from":"a@b.c","event":"received"}`, KindNotification},
		{"command", `{"id":"1","method":"get","uri":"/ping"}`, KindCommand},
		{"session", `{"id":"1","state":"authenticating"}`, KindSession},
		{"message with null content", `{"id":"1","type":"text/plain","content":null}`, KindMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, env.Kind())
			assert.Equal(t, "1", env.Header().ID)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"id":"1"}`))
	assert.True(t, errors.Is(err, ErrMalformedEnvelope))

	_, err = Decode([]byte(`not json`))
	assert.True(t, errors.Is(err, ErrMalformedEnvelope))
}

func TestDecode_CommandResponse(t *testing.T) {
	raw := `{
		"id":"42","from":"postmaster@crm.msging.net/#az","to":"bot@msging.net/default",
		"method":"get","status":"failure",
		"reason":{"code":67,"description":"Resource not found"}
	}`
	env, err := Decode([]byte(raw))
	require.NoError(t, err)

	cmd, ok := env.(*Command)
	require.True(t, ok)
	assert.True(t, cmd.IsResponse())
	assert.True(t, cmd.Failed())
	require.NotNil(t, cmd.Reason)
	assert.Equal(t, ReasonCommandResourceNotFound, cmd.Reason.Code)
	assert.Equal(t, "crm.msging.net", cmd.From.Domain)
}

func TestEncode_OmitsEmptyNodes(t *testing.T) {
	cmd := &Command{Envelope: Envelope{ID: "1"}, Method: MethodGet, URI: "/contacts"}
	raw, err := Encode(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","method":"get","uri":"/contacts"}`, string(raw))
}

func TestCommandResourceInto(t *testing.T) {
	env, err := Decode([]byte(`{"id":"1","method":"get","status":"success","type":"application/vnd.lime.collection+json","resource":{"total":2,"items":["a","b"]}}`))
	require.NoError(t, err)
	cmd := env.(*Command)

	var coll struct {
		Total int      `json:"total"`
		Items []string `json:"items"`
	}
	require.NoError(t, cmd.ResourceInto(&coll))
	assert.Equal(t, 2, coll.Total)
	assert.Equal(t, []string{"a", "b"}, coll.Items)

	var missing struct{ Total int }
	require.NoError(t, (&Command{}).ResourceInto(&missing))
	assert.Zero(t, missing.Total)
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON(MediaTypeJSON))
	assert.True(t, IsJSON(MediaTypeContact))
	assert.False(t, IsJSON(MediaTypeTextPlain))
}
