// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resource manages the bot's named resources.
package resource

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster("msging.net"))}
}

func itemURI(id string) (string, error) {
	if err := base.Required("id", id); err != nil {
		return "", err
	}
	return base.BuildURI("/resources/%s", id), nil
}

func (e *Extension) Get(ctx context.Context, id string) (*lime.Command, error) {
	uri, err := itemURI(id)
	if err != nil {
		return nil, err
	}
	return e.Process(ctx, e.CreateGetCommand(uri))
}

// Set stores resource under id. An empty mediaType is inferred.
func (e *Extension) Set(ctx context.Context, id string, resource any, mediaType string) error {
	uri, err := itemURI(id)
	if err != nil {
		return err
	}
	if resource == nil {
		return fmt.Errorf("%w: resource cannot be nil", base.ErrInvalidArgument)
	}
	_, err = e.Process(ctx, e.CreateSetCommand(uri, resource, mediaType))
	return err
}

func (e *Extension) Delete(ctx context.Context, id string) error {
	uri, err := itemURI(id)
	if err != nil {
		return err
	}
	_, err = e.Process(ctx, e.CreateDeleteCommand(uri))
	return err
}

// GetAll lists resource ids. The server caps Take at 100.
func (e *Extension) GetAll(ctx context.Context, page base.Page, extra ...base.QueryParam) (base.Collection[string], error) {
	var params []base.QueryParam
	if page.Take > 0 {
		params = append(params, base.Param("$take", page.Take))
	}
	if page.Skip > 0 {
		params = append(params, base.Param("$skip", page.Skip))
	}
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/resources", append(params, extra...)...)))
	if err != nil {
		return base.Collection[string]{}, err
	}
	return base.ParseCollection[string](resp)
}
