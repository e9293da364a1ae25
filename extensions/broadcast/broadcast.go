// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package broadcast manages distribution lists and sends messages to them.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

// Domain hosts every distribution list.
const Domain = "broadcast.msging.net"

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// ListIdentity returns the identity name@broadcast.msging.net.
func ListIdentity(name string) (lime.Identity, error) {
	if strings.TrimSpace(name) == "" {
		return lime.Identity{}, fmt.Errorf("%w: list name cannot be empty", base.ErrInvalidArgument)
	}
	return lime.NewIdentity(name, Domain), nil
}

func (e *Extension) CreateDistributionList(ctx context.Context, name string) error {
	list, err := ListIdentity(name)
	if err != nil {
		return err
	}
	cmd := e.CreateSetCommand("/lists", map[string]any{"identity": list.String()}, lime.MediaTypeDistributionList)
	_, err = e.Process(ctx, cmd)
	return err
}

// GetAllDistributionLists returns the identities of the bot's lists. A zero
// page sends a bare /lists and lets the server apply its own paging.
func (e *Extension) GetAllDistributionLists(ctx context.Context, page base.Page) (base.Collection[string], error) {
	uri := base.BuildResourceQuery("/lists", page.OptionalParams()...)
	resp, err := e.Process(ctx, e.CreateGetCommand(uri))
	if err != nil {
		return base.Collection[string]{}, err
	}
	return base.ParseCollection[string](resp)
}

func (e *Extension) DeleteDistributionList(ctx context.Context, name string) error {
	list, err := ListIdentity(name)
	if err != nil {
		return err
	}
	_, err = e.Process(ctx, e.CreateDeleteCommand("/lists/"+base.Escape(list.String())))
	return err
}

func (e *Extension) AddRecipient(ctx context.Context, name string, recipient lime.Identity) error {
	uri, err := recipientsURI(name)
	if err != nil {
		return err
	}
	if recipient.IsZero() {
		return fmt.Errorf("%w: recipient cannot be empty", base.ErrInvalidArgument)
	}
	cmd := e.CreateSetCommand(uri, map[string]any{"value": recipient.String()}, lime.MediaTypeIdentity)
	_, err = e.Process(ctx, cmd)
	return err
}

func (e *Extension) DeleteRecipient(ctx context.Context, name string, recipient lime.Identity) error {
	uri, err := recipientURI(name, recipient)
	if err != nil {
		return err
	}
	_, err = e.Process(ctx, e.CreateDeleteCommand(uri))
	return err
}

// HasRecipient reports whether recipient belongs to the list. A failure
// response means it does not; transport errors are returned.
func (e *Extension) HasRecipient(ctx context.Context, name string, recipient lime.Identity) (bool, error) {
	uri, err := recipientURI(name, recipient)
	if err != nil {
		return false, err
	}
	if _, err := e.Process(ctx, e.CreateGetCommand(uri)); err != nil {
		var cerr *lime.CommandError
		if errors.As(err, &cerr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *Extension) GetRecipients(ctx context.Context, name string, page base.Page) (base.Collection[string], error) {
	uri, err := recipientsURI(name)
	if err != nil {
		return base.Collection[string]{}, err
	}
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery(uri, page.Params()...)))
	if err != nil {
		return base.Collection[string]{}, err
	}
	return base.ParseCollection[string](resp)
}

// SendMessage sends content to every recipient of the list. An empty id is
// replaced by a fresh one.
func (e *Extension) SendMessage(ctx context.Context, name, mediaType string, content any, id string) error {
	list, err := ListIdentity(name)
	if err != nil {
		return err
	}
	if id == "" {
		id = lime.NewID()
	}
	if mediaType == "" {
		mediaType = base.InferType(content)
	}
	return e.Sender().SendMessage(ctx, &lime.Message{
		Envelope: lime.Envelope{ID: id, To: list.ToNode()},
		Type:     mediaType,
		Content:  content,
	})
}

func recipientsURI(name string) (string, error) {
	list, err := ListIdentity(name)
	if err != nil {
		return "", err
	}
	return "/lists/" + base.Escape(list.String()) + "/recipients", nil
}

func recipientURI(name string, recipient lime.Identity) (string, error) {
	uri, err := recipientsURI(name)
	if err != nil {
		return "", err
	}
	if recipient.IsZero() {
		return "", fmt.Errorf("%w: recipient cannot be empty", base.ErrInvalidArgument)
	}
	return uri + "/" + base.Escape(recipient.String()), nil
}
