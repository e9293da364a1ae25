// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scheduler schedules messages for later delivery.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "scheduler.msging.net"

type scheduledContent struct {
	To      string `json:"to"`
	Content any    `json:"content"`
	Type    string `json:"type,omitempty"`
}

// Schedule is the document stored by the scheduler.
type Schedule struct {
	When    time.Time        `json:"when"`
	Message scheduledContent `json:"message"`
	Name    string           `json:"name,omitempty"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// ScheduleMessage asks the scheduler to send msg at when. name, if set,
// identifies the schedule for CancelScheduledMessage.
func (e *Extension) ScheduleMessage(ctx context.Context, when time.Time, msg *lime.Message, name string) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", base.ErrInvalidArgument)
	}
	if when.IsZero() {
		return fmt.Errorf("%w: schedule time cannot be zero", base.ErrInvalidArgument)
	}
	s := Schedule{
		When: when,
		Message: scheduledContent{
			To:      msg.To.String(),
			Content: msg.Content,
			Type:    msg.Type,
		},
		Name: name,
	}
	_, err := e.Process(ctx, e.CreateSetCommand("/messages", s, lime.MediaTypeJSON))
	return err
}

func (e *Extension) CancelScheduledMessage(ctx context.Context, name string) error {
	if err := base.Required("name", name); err != nil {
		return err
	}
	_, err := e.Process(ctx, e.CreateDeleteCommand(base.BuildURI("/messages/%s", name)))
	return err
}

func (e *Extension) GetScheduledMessages(ctx context.Context, page base.Page) ([]map[string]any, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/messages", page.Params()...)))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[map[string]any](resp)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}
