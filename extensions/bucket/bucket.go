// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bucket stores JSON and text documents in the bot's bucket.
package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

type Extension struct {
	base.Base
}

// New returns a bucket extension. Bucket commands are addressed to the bot's
// own domain, so no destination is set.
func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, lime.Node{})}
}

func itemURI(id string) (string, error) {
	if err := base.Required("id", id); err != nil {
		return "", err
	}
	return base.BuildURI("/buckets/%s", id), nil
}

// Get returns the raw response holding the document stored under id.
func (e *Extension) Get(ctx context.Context, id string, extra ...base.QueryParam) (*lime.Command, error) {
	uri, err := itemURI(id)
	if err != nil {
		return nil, err
	}
	return e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery(uri, extra...)))
}

// GetInto decodes the document stored under id into v.
func (e *Extension) GetInto(ctx context.Context, id string, v any) error {
	resp, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	return resp.ResourceInto(v)
}

// GetIDs lists the stored document ids.
func (e *Extension) GetIDs(ctx context.Context, page base.Page, extra ...base.QueryParam) (base.Collection[string], error) {
	uri := base.BuildResourceQuery("/buckets", append(page.Params(), extra...)...)
	resp, err := e.Process(ctx, e.CreateGetCommand(uri))
	if err != nil {
		return base.Collection[string]{}, err
	}
	return base.ParseCollection[string](resp)
}

// Set stores document under id. A positive expiration is sent in
// milliseconds; an empty mediaType is inferred from the document.
func (e *Extension) Set(ctx context.Context, id string, document any, expiration time.Duration, mediaType string, extra ...base.QueryParam) error {
	uri, err := itemURI(id)
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("%w: document cannot be nil", base.ErrInvalidArgument)
	}
	var params []base.QueryParam
	if expiration > 0 {
		params = append(params, base.Param("expiration", expiration.Milliseconds()))
	}
	uri = base.BuildResourceQuery(uri, append(params, extra...)...)
	_, err = e.Process(ctx, e.CreateSetCommand(uri, document, mediaType))
	return err
}

func (e *Extension) Delete(ctx context.Context, id string, extra ...base.QueryParam) error {
	uri, err := itemURI(id)
	if err != nil {
		return err
	}
	_, err = e.Process(ctx, e.CreateDeleteCommand(base.BuildResourceQuery(uri, extra...)))
	return err
}

type textDocument struct {
	Text string `json:"text"`
}

// GetText returns the text stored by SetText.
func (e *Extension) GetText(ctx context.Context, id string) (string, error) {
	var doc textDocument
	if err := e.GetInto(ctx, id, &doc); err != nil {
		return "", err
	}
	return doc.Text, nil
}

// SetText stores {"text": text} under id.
func (e *Extension) SetText(ctx context.Context, id, text string, expiration time.Duration) error {
	return e.Set(ctx, id, textDocument{Text: text}, expiration, lime.MediaTypeJSON)
}
