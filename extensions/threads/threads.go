// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package threads manages group conversation threads.
package threads

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const Domain = "threads.msging.net"

type Thread struct {
	ID            string   `json:"id,omitempty"`
	OwnerIdentity string   `json:"ownerIdentity,omitempty"`
	Participants  []string `json:"participants"`
	CreatedDate   string   `json:"createdDate,omitempty"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

func (e *Extension) CreateThread(ctx context.Context, participants []lime.Identity) (*Thread, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: participants cannot be empty", base.ErrInvalidArgument)
	}
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.String())
	}
	return e.thread(ctx, e.CreateSetCommand("/threads", Thread{Participants: ids}, lime.MediaTypeJSON))
}

func (e *Extension) GetThread(ctx context.Context, id string) (*Thread, error) {
	if err := base.Required("thread id", id); err != nil {
		return nil, err
	}
	return e.thread(ctx, e.CreateGetCommand(base.BuildURI("/threads/%s", id)))
}

func (e *Extension) GetThreads(ctx context.Context, page base.Page) ([]Thread, error) {
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/threads", page.Params()...)))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[Thread](resp)
	if err != nil {
		return nil, err
	}
	return coll.Items, nil
}

func (e *Extension) AddParticipant(ctx context.Context, threadID string, participant lime.Identity) error {
	if err := validParticipant(threadID, participant); err != nil {
		return err
	}
	uri := base.BuildURI("/threads/%s/participants", threadID)
	_, err := e.Process(ctx, e.CreateSetCommand(uri, map[string]string{"value": participant.String()}, lime.MediaTypeIdentity))
	return err
}

func (e *Extension) RemoveParticipant(ctx context.Context, threadID string, participant lime.Identity) error {
	if err := validParticipant(threadID, participant); err != nil {
		return err
	}
	uri := base.BuildURI("/threads/%s/participants/%s", threadID, participant)
	_, err := e.Process(ctx, e.CreateDeleteCommand(uri))
	return err
}

func (e *Extension) DeleteThread(ctx context.Context, id string) error {
	if err := base.Required("thread id", id); err != nil {
		return err
	}
	_, err := e.Process(ctx, e.CreateDeleteCommand(base.BuildURI("/threads/%s", id)))
	return err
}

func validParticipant(threadID string, participant lime.Identity) error {
	if err := base.Required("thread id", threadID); err != nil {
		return err
	}
	if participant.IsZero() {
		return fmt.Errorf("%w: participant cannot be empty", base.ErrInvalidArgument)
	}
	return nil
}

func (e *Extension) thread(ctx context.Context, cmd *lime.Command) (*Thread, error) {
	resp, err := e.Process(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Resource == nil {
		return nil, nil
	}
	var t Thread
	if err := resp.ResourceInto(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
