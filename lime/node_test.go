// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNode(t *testing.T) {
	tests := []struct {
		in       string
		name     string
		domain   string
		instance string
	}{
		{"bot@msging.net/default", "bot", "msging.net", "default"},
		{"bot@msging.net", "bot", "msging.net", ""},
		{"msging.net", "", "msging.net", ""},
		{"postmaster@desk.msging.net", "postmaster", "desk.msging.net", ""},
		{"  user@0mn.io/instance/with/slash  ", "user", "0mn.io", "instance/with/slash"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := ParseNode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, n.Name)
			assert.Equal(t, tt.domain, n.Domain)
			assert.Equal(t, tt.instance, n.Instance)
		})
	}
}

func TestParseNode_Invalid(t *testing.T) {
	_, err := ParseNode("bot@")
	assert.Error(t, err)

	_, err = ParseNode("/instance")
	assert.Error(t, err)
}

func TestParseIdentity_RejectsInstance(t *testing.T) {
	_, err := ParseIdentity("bot@msging.net/home")
	assert.Error(t, err)
}

func TestNodeString_RoundTrip(t *testing.T) {
	for _, s := range []string{"bot@msging.net/default", "bot@msging.net", "msging.net"} {
		assert.Equal(t, s, MustParseNode(s).String())
	}
}

func TestNodeEqual(t *testing.T) {
	a := MustParseNode("Bot@MSGING.net/x")
	b := MustParseNode("bot@msging.net/x")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(MustParseNode("bot@msging.net/y")))
}

func TestIdentityToNode(t *testing.T) {
	id := NewIdentity("list", "broadcast.msging.net")
	n := id.ToNode()
	assert.Equal(t, "list@broadcast.msging.net", n.String())
	assert.Equal(t, id, n.ToIdentity())
}

func TestNodeJSON(t *testing.T) {
	type wrapper struct {
		To   Node `json:"to,omitzero"`
		From Node `json:"from,omitzero"`
	}
	raw, err := json.Marshal(wrapper{To: MustParseNode("a@b.c/d")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"a@b.c/d"}`, string(raw))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"to":"x@y.z","from":"q@r.s/t"}`), &w))
	assert.Equal(t, "x@y.z", w.To.String())
	assert.Equal(t, "t", w.From.Instance)
}
