// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tunnel connects identities across domains and relays envelopes
// through those connections.
package tunnel

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "tunnel.msging.net"

type forwardedMessage struct {
	ID      string `json:"id,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Content any    `json:"content"`
	Type    string `json:"type,omitempty"`
}

type forwardedNotification struct {
	ID    string     `json:"id,omitempty"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to"`
	Event lime.Event `json:"event"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

func nodeString(n lime.Node) string {
	if n.IsZero() {
		return ""
	}
	return n.String()
}

func requireDestination(dest lime.Identity) error {
	if dest.IsZero() {
		return fmt.Errorf("%w: destination identity cannot be empty", base.ErrInvalidArgument)
	}
	return nil
}

func (e *Extension) ForwardMessage(ctx context.Context, msg *lime.Message, dest lime.Identity) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", base.ErrInvalidArgument)
	}
	if err := requireDestination(dest); err != nil {
		return err
	}
	doc := map[string]any{
		"message": forwardedMessage{
			ID:      msg.ID,
			From:    nodeString(msg.From),
			To:      msg.To.String(),
			Content: msg.Content,
			Type:    msg.Type,
		},
		"destinationIdentity": dest.String(),
	}
	_, err := e.Process(ctx, e.CreateSetCommand("/messages", doc, lime.MediaTypeJSON))
	return err
}

func (e *Extension) ForwardNotification(ctx context.Context, n *lime.Notification, dest lime.Identity) error {
	if n == nil {
		return fmt.Errorf("%w: notification cannot be nil", base.ErrInvalidArgument)
	}
	if err := requireDestination(dest); err != nil {
		return err
	}
	doc := map[string]any{
		"notification": forwardedNotification{
			ID:    n.ID,
			From:  nodeString(n.From),
			To:    n.To.String(),
			Event: n.Event,
		},
		"destinationIdentity": dest.String(),
	}
	_, err := e.Process(ctx, e.CreateSetCommand("/notifications", doc, lime.MediaTypeJSON))
	return err
}

// CreateTunnel connects source to dest. name is optional.
func (e *Extension) CreateTunnel(ctx context.Context, source, dest lime.Identity, name string) (map[string]any, error) {
	if source.IsZero() {
		return nil, fmt.Errorf("%w: source identity cannot be empty", base.ErrInvalidArgument)
	}
	if err := requireDestination(dest); err != nil {
		return nil, err
	}
	doc := map[string]any{
		"sourceIdentity":      source.String(),
		"destinationIdentity": dest.String(),
	}
	if name != "" {
		doc["name"] = name
	}
	return e.document(ctx, e.CreateSetCommand("/tunnels", doc, lime.MediaTypeJSON))
}

func (e *Extension) GetTunnel(ctx context.Context, id string) (map[string]any, error) {
	if err := base.Required("tunnel id", id); err != nil {
		return nil, err
	}
	return e.document(ctx, e.CreateGetCommand(base.BuildURI("/tunnels/%s", id)))
}

func (e *Extension) DeleteTunnel(ctx context.Context, id string) error {
	if err := base.Required("tunnel id", id); err != nil {
		return err
	}
	_, err := e.Process(ctx, e.CreateDeleteCommand(base.BuildURI("/tunnels/%s", id)))
	return err
}

func (e *Extension) GetTunnels(ctx context.Context, page base.Page) ([]map[string]any, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/tunnels", page.Params()...)))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[map[string]any](resp)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}

// document returns the response resource as an object, empty when absent.
func (e *Extension) document(ctx context.Context, cmd *lime.Command) (map[string]any, error) {
	resp, err := e.Process(ctx, cmd)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := resp.ResourceInto(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
