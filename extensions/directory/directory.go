// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package directory queries the public account directory of a domain.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

// Account is a directory entry. Fields the SDK does not model are kept in Extra.
type Account struct {
	Identity string         `json:"identity,omitempty"`
	FullName string         `json:"fullName,omitempty"`
	PhotoURI string         `json:"photoUri,omitempty"`
	InboxURI string         `json:"inboxUri,omitempty"`
	Extra    map[string]any `json:"-"`
}

func (a *Account) UnmarshalJSON(b []byte) error {
	type plain Account
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range []string{"identity", "fullName", "photoUri", "inboxUri"} {
		delete(all, k)
	}
	*a = Account(p)
	if len(all) > 0 {
		a.Extra = all
	}
	return nil
}

type Extension struct {
	base.Base
}

// New returns a directory extension. Each query is addressed to the
// postmaster of the queried identity's domain.
func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, lime.Node{})}
}

func (e *Extension) GetDirectoryAccount(ctx context.Context, identity lime.Identity) (*Account, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity cannot be empty", base.ErrInvalidArgument)
	}
	if strings.TrimSpace(identity.Domain) == "" {
		return nil, fmt.Errorf("%w: invalid identity domain", base.ErrInvalidArgument)
	}

	cmd := e.CreateGetCommand(fmt.Sprintf("lime://%s/accounts/%s", identity.Domain, base.Escape(identity.Name)))
	cmd.To = base.Postmaster(identity.Domain)

	resp, err := e.Process(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Resource == nil {
		return nil, nil
	}
	var acc Account
	if err := resp.ResourceInto(&acc); err != nil {
		return nil, err
	}
	return &acc, nil
}
