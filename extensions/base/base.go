// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package base holds the command plumbing shared by the BLiP extensions.
package base

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/lime"
)

// ErrInvalidArgument is returned when an extension call is rejected before
// anything is sent.
var ErrInvalidArgument = errors.New("invalid argument")

// Sender is the part of the client the extensions need.
type Sender interface {
	ProcessCommand(ctx context.Context, cmd *lime.Command) (*lime.Command, error)
	SendCommand(ctx context.Context, cmd *lime.Command) error
	SendMessage(ctx context.Context, msg *lime.Message) error
	SendNotification(ctx context.Context, n *lime.Notification) error
}

// Base builds commands addressed to one postmaster and runs them through a Sender.
type Base struct {
	sender Sender
	to     lime.Node
}

// New returns a Base whose commands go to `to`. A zero node leaves the
// destination to the server.
func New(sender Sender, to lime.Node) Base {
	return Base{sender: sender, to: to}
}

// Postmaster returns the node postmaster@domain.
func Postmaster(domain string) lime.Node {
	return lime.NewNode("postmaster", domain, "")
}

func (b Base) Sender() Sender { return b.sender }

// To is the default destination of the commands built by b.
func (b Base) To() lime.Node { return b.to }

func (b Base) command(method lime.Method, uri string) *lime.Command {
	return &lime.Command{
		Envelope: lime.Envelope{ID: lime.NewID(), To: b.to},
		Method:   method,
		URI:      uri,
	}
}

func (b Base) CreateGetCommand(uri string) *lime.Command {
	return b.command(lime.MethodGet, uri)
}

func (b Base) CreateDeleteCommand(uri string) *lime.Command {
	return b.command(lime.MethodDelete, uri)
}

// CreateSetCommand builds a set command. An empty mediaType is inferred from
// the resource.
func (b Base) CreateSetCommand(uri string, resource any, mediaType string) *lime.Command {
	return b.withResource(lime.MethodSet, uri, resource, mediaType)
}

func (b Base) CreateMergeCommand(uri string, resource any, mediaType string) *lime.Command {
	return b.withResource(lime.MethodMerge, uri, resource, mediaType)
}

func (b Base) CreateObserveCommand(uri string, resource any, mediaType string) *lime.Command {
	return b.withResource(lime.MethodObserve, uri, resource, mediaType)
}

func (b Base) withResource(method lime.Method, uri string, resource any, mediaType string) *lime.Command {
	cmd := b.command(method, uri)
	if mediaType == "" {
		mediaType = InferType(resource)
	}
	cmd.Type = mediaType
	cmd.Resource = resource
	return cmd
}

// InferType picks text/plain for strings and application/json otherwise.
func InferType(resource any) string {
	switch resource.(type) {
	case string, lime.PlainText:
		return lime.MediaTypeTextPlain
	}
	return lime.MediaTypeJSON
}

// Process sends cmd and waits for its response.
func (b Base) Process(ctx context.Context, cmd *lime.Command) (*lime.Command, error) {
	return b.sender.ProcessCommand(ctx, cmd)
}

// ProcessInto sends cmd and decodes the response resource into v.
func (b Base) ProcessInto(ctx context.Context, cmd *lime.Command, v any) error {
	resp, err := b.Process(ctx, cmd)
	if err != nil {
		return err
	}
	return resp.ResourceInto(v)
}

// Send sends cmd without waiting for a response.
func (b Base) Send(ctx context.Context, cmd *lime.Command) error {
	return b.sender.SendCommand(ctx, cmd)
}

// Required returns ErrInvalidArgument naming the first empty value. Pairs are
// name, value.
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidArgument, pairs[i])
		}
	}
	return nil
}

// Collection is the {total, items} document returned by list resources.
type Collection[T any] struct {
	Total    int    `json:"total"`
	ItemType string `json:"itemType,omitempty"`
	Items    []T    `json:"items"`
}

// ParseCollection decodes a collection response. A response without a
// resource yields an empty collection.
func ParseCollection[T any](resp *lime.Command) (Collection[T], error) {
	var out Collection[T]
	if resp == nil {
		return out, nil
	}
	if err := resp.ResourceInto(&out); err != nil {
		return Collection[T]{}, err
	}
	return out, nil
}
