// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package contacts reads and writes the bot's CRM contacts.
package contacts

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "crm.msging.net"

// Contact is an application/vnd.lime.contact+json document.
type Contact struct {
	Identity    lime.Identity     `json:"identity,omitzero"`
	Name        string            `json:"name,omitempty"`
	Email       string            `json:"email,omitempty"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	Address     string            `json:"address,omitempty"`
	City        string            `json:"city,omitempty"`
	Gender      string            `json:"gender,omitempty"`
	Group       string            `json:"group,omitempty"`
	PhotoURI    string            `json:"photoUri,omitempty"`
	Source      string            `json:"source,omitempty"`
	LastMessage string            `json:"lastMessageDate,omitempty"`
	Extras      map[string]string `json:"extras,omitempty"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

func contactURI(identity lime.Identity) (string, error) {
	if identity.IsZero() {
		return "", fmt.Errorf("%w: contact identity cannot be empty", base.ErrInvalidArgument)
	}
	return base.BuildURI("/contacts/%s", identity), nil
}

func (e *Extension) Get(ctx context.Context, identity lime.Identity, extra ...base.QueryParam) (*Contact, error) {
	uri, err := contactURI(identity)
	if err != nil {
		return nil, err
	}
	var c Contact
	if err := e.ProcessInto(ctx, e.CreateGetCommand(base.BuildResourceQuery(uri, extra...)), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContacts lists contacts. Zero paging fields are left to the server.
func (e *Extension) GetContacts(ctx context.Context, page base.Page, extra ...base.QueryParam) (base.Collection[Contact], error) {
	uri := base.BuildResourceQuery("/contacts", append(page.OptionalParams(), extra...)...)
	resp, err := e.Process(ctx, e.CreateGetCommand(uri))
	if err != nil {
		return base.Collection[Contact]{}, err
	}
	return base.ParseCollection[Contact](resp)
}

// Set replaces the contact.
func (e *Extension) Set(ctx context.Context, c *Contact, extra ...base.QueryParam) error {
	if err := validContact(c); err != nil {
		return err
	}
	uri := base.BuildResourceQuery("/contacts", extra...)
	_, err := e.Process(ctx, e.CreateSetCommand(uri, c, lime.MediaTypeContact))
	return err
}

// Merge updates only the fields present in c.
func (e *Extension) Merge(ctx context.Context, c *Contact, extra ...base.QueryParam) error {
	if err := validContact(c); err != nil {
		return err
	}
	uri := base.BuildResourceQuery("/contacts", extra...)
	_, err := e.Process(ctx, e.CreateMergeCommand(uri, c, lime.MediaTypeContact))
	return err
}

func (e *Extension) Delete(ctx context.Context, identity lime.Identity, extra ...base.QueryParam) error {
	uri, err := contactURI(identity)
	if err != nil {
		return err
	}
	_, err = e.Process(ctx, e.CreateDeleteCommand(base.BuildResourceQuery(uri, extra...)))
	return err
}

func validContact(c *Contact) error {
	if c == nil || c.Identity.IsZero() {
		return fmt.Errorf("%w: contact identity cannot be empty", base.ErrInvalidArgument)
	}
	return nil
}
