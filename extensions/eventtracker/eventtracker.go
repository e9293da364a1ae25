// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package eventtracker records analytics events and reads their aggregates.
package eventtracker

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "analytics.msging.net"

// Event is an application/vnd.iris.eventTrack+json document.
type Event struct {
	Category    string            `json:"category"`
	Action      string            `json:"action,omitempty"`
	Identity    string            `json:"identity,omitempty"`
	Extras      map[string]string `json:"extras,omitempty"`
	StorageDate string            `json:"storageDate,omitempty"`
	Count       int               `json:"count,omitempty"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// Track records one occurrence of category/action. identity is optional.
func (e *Extension) Track(ctx context.Context, category, action, identity string, extras map[string]string) error {
	if err := base.Required("category", category, "action", action); err != nil {
		return err
	}
	ev := Event{Category: category, Action: action, Identity: identity, Extras: extras}
	_, err := e.Process(ctx, e.CreateSetCommand("/events", ev, lime.MediaTypeEventTrack))
	return err
}

// GetCategories lists tracked categories.
func (e *Extension) GetCategories(ctx context.Context, page base.Page, extra ...base.QueryParam) (base.Collection[Event], error) {
	return e.list(ctx, base.BuildResourceQuery("/events", append(page.OptionalParams(), extra...)...))
}

// ActionsQuery narrows GetActions. Dates are passed through as given.
type ActionsQuery struct {
	base.Page
	StartDate string
	EndDate   string
}

func (q ActionsQuery) params() []base.QueryParam {
	params := q.OptionalParams()
	if q.StartDate != "" {
		params = append(params, base.Param("startDate", q.StartDate))
	}
	if q.EndDate != "" {
		params = append(params, base.Param("endDate", q.EndDate))
	}
	return params
}

// GetActions lists the actions tracked under category.
func (e *Extension) GetActions(ctx context.Context, category string, q ActionsQuery, extra ...base.QueryParam) (base.Collection[Event], error) {
	if err := base.Required("category", category); err != nil {
		return base.Collection[Event]{}, err
	}
	uri := base.BuildURI("/events/%s", category)
	return e.list(ctx, base.BuildResourceQuery(uri, append(q.params(), extra...)...))
}

// GetActionEvents lists the individual events of one category/action pair.
func (e *Extension) GetActionEvents(ctx context.Context, category, action string, q ActionsQuery) (base.Collection[Event], error) {
	if err := base.Required("category", category, "action", action); err != nil {
		return base.Collection[Event]{}, err
	}
	uri := base.BuildURI("/events/%s/%s", category, action)
	return e.list(ctx, base.BuildResourceQuery(uri, q.params()...))
}

func (e *Extension) list(ctx context.Context, uri string) (base.Collection[Event], error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(uri))
	if err != nil {
		return base.Collection[Event]{}, fmt.Errorf("event tracker: %w", err)
	}
	return base.ParseCollection[Event](resp)
}
