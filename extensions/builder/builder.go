// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package builder reads and publishes Builder flows.
package builder

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "builder.msging.net"

// Flow is a Builder flow document. Its shape is owned by the Builder service.
type Flow = map[string]any

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// GetFlow returns the flow with the given id, or an empty flow when the
// response has no resource.
func (e *Extension) GetFlow(ctx context.Context, id string) (Flow, error) {
	if err := base.Required("flow id", id); err != nil {
		return nil, err
	}
	flow := Flow{}
	if err := e.ProcessInto(ctx, e.CreateGetCommand(base.BuildURI("/flows/%s", id)), &flow); err != nil {
		return nil, err
	}
	return flow, nil
}

func (e *Extension) SetFlow(ctx context.Context, flow Flow) error {
	if flow == nil {
		return fmt.Errorf("%w: flow cannot be nil", base.ErrInvalidArgument)
	}
	_, err := e.Process(ctx, e.CreateSetCommand("/flows", flow, lime.MediaTypeJSON))
	return err
}

func (e *Extension) DeleteFlow(ctx context.Context, id string) error {
	if err := base.Required("flow id", id); err != nil {
		return err
	}
	_, err := e.Process(ctx, e.CreateDeleteCommand(base.BuildURI("/flows/%s", id)))
	return err
}

// GetFlows lists flows.
func (e *Extension) GetFlows(ctx context.Context, page base.Page) ([]Flow, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/flows", page.Params()...)))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[Flow](resp)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}
