// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package profile manages the bot's channel profile: the get-started
// button, the greeting and the persistent menu.
package profile

import (
	"context"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const (
	getStartedURI     = "/profile/get-started"
	greetingURI       = "/profile/greeting"
	persistentMenuURI = "/profile/persistent-menu"
)

// DocumentSelect is the persistent menu document.
type DocumentSelect struct {
	Header  map[string]any   `json:"header,omitempty"`
	Options []map[string]any `json:"options"`
	Scope   string           `json:"scope,omitempty"`
}

type greeting struct {
	Text string `json:"text"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, lime.Node{})}
}

// get treats a missing profile entry as an empty response.
func (e *Extension) get(ctx context.Context, uri string) (*lime.Command, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(uri))
	if lime.IsNotFound(err) {
		return &lime.Command{Method: lime.MethodGet, URI: uri, Status: lime.StatusSuccess}, nil
	}
	return resp, err
}

// GetGetStarted returns the get-started document, or nil when none is set.
func (e *Extension) GetGetStarted(ctx context.Context) (any, error) {
	resp, err := e.get(ctx, getStartedURI)
	if err != nil {
		return nil, err
	}
	return resp.Resource, nil
}

func (e *Extension) SetGetStarted(ctx context.Context, doc any, mediaType string) error {
	_, err := e.Process(ctx, e.CreateSetCommand(getStartedURI, doc, mediaType))
	return err
}

func (e *Extension) DeleteGetStarted(ctx context.Context) error {
	_, err := e.Process(ctx, e.CreateDeleteCommand(getStartedURI))
	return err
}

// GetGreeting returns the greeting text, or "" when none is set. Both the
// {"text": ...} document and a bare string are accepted.
func (e *Extension) GetGreeting(ctx context.Context) (string, error) {
	resp, err := e.get(ctx, greetingURI)
	if err != nil {
		return "", err
	}
	switch r := resp.Resource.(type) {
	case nil:
		return "", nil
	case string:
		return r, nil
	}
	var g greeting
	if err := resp.ResourceInto(&g); err != nil {
		return "", err
	}
	return g.Text, nil
}

func (e *Extension) SetGreeting(ctx context.Context, text string) error {
	_, err := e.Process(ctx, e.CreateSetCommand(greetingURI, greeting{Text: text}, lime.MediaTypeJSON))
	return err
}

func (e *Extension) DeleteGreeting(ctx context.Context) error {
	_, err := e.Process(ctx, e.CreateDeleteCommand(greetingURI))
	return err
}

// GetPersistentMenu returns the menu, or nil when none is set.
func (e *Extension) GetPersistentMenu(ctx context.Context) (*DocumentSelect, error) {
	resp, err := e.get(ctx, persistentMenuURI)
	if err != nil || resp.Resource == nil {
		return nil, err
	}
	var menu DocumentSelect
	if err := resp.ResourceInto(&menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

func (e *Extension) SetPersistentMenu(ctx context.Context, menu *DocumentSelect) error {
	if menu == nil {
		menu = &DocumentSelect{}
	}
	if menu.Options == nil {
		menu.Options = []map[string]any{}
	}
	_, err := e.Process(ctx, e.CreateSetCommand(persistentMenuURI, menu, lime.MediaTypeDocumentSelect))
	return err
}

func (e *Extension) DeletePersistentMenu(ctx context.Context) error {
	_, err := e.Process(ctx, e.CreateDeleteCommand(persistentMenuURI))
	return err
}
