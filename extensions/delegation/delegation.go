// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package delegation hands messages over to another identity.
package delegation

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "delegation.msging.net"

type delegatedMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Content any    `json:"content"`
	Type    string `json:"type,omitempty"`
}

type delegationRequest struct {
	Message        delegatedMessage `json:"message"`
	TargetIdentity string           `json:"targetIdentity"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// DelegateMessage asks the platform to deliver msg on behalf of target.
func (e *Extension) DelegateMessage(ctx context.Context, msg *lime.Message, target lime.Identity) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", base.ErrInvalidArgument)
	}
	if target.IsZero() {
		return fmt.Errorf("%w: target identity cannot be empty", base.ErrInvalidArgument)
	}
	req := delegationRequest{
		Message: delegatedMessage{
			To:      msg.To.String(),
			Content: msg.Content,
			Type:    msg.Type,
		},
		TargetIdentity: target.String(),
	}
	if !msg.From.IsZero() {
		req.Message.From = msg.From.String()
	}
	_, err := e.Process(ctx, e.CreateSetCommand("/delegations", req, lime.MediaTypeJSON))
	return err
}

func (e *Extension) GetDelegations(ctx context.Context, page base.Page) ([]map[string]any, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/delegations", page.Params()...)))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[map[string]any](resp)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}
