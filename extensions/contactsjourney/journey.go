// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package contactsjourney records the states a contact passes through.
package contactsjourney

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const (
	Domain = "analytics.msging.net"
	URI    = "/contacts-journey"
)

// Node is one step of a contact's journey.
type Node struct {
	CurrentStateID    string    `json:"currentStateId"`
	CurrentStateName  string    `json:"currentStateName"`
	PreviousStateID   string    `json:"previousStateId,omitempty"`
	PreviousStateName string    `json:"previousStateName,omitempty"`
	ContactIdentity   string    `json:"contactIdentity,omitempty"`
	StorageDate       time.Time `json:"storageDate"`
}

type Extension struct {
	base.Base
	now func() time.Time
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain)), now: time.Now}
}

// AddOptions describes the step being recorded.
type AddOptions struct {
	StateID           string
	StateName         string
	PreviousStateID   string
	PreviousStateName string
	ContactIdentity   string
	// FireAndForget sends an observe command and returns without waiting.
	FireAndForget bool
}

// Add records a journey step stamped with the current time.
func (e *Extension) Add(ctx context.Context, opts AddOptions) error {
	if strings.TrimSpace(opts.StateID) == "" {
		return fmt.Errorf("%w: state id cannot be empty", base.ErrInvalidArgument)
	}
	if strings.TrimSpace(opts.StateName) == "" {
		return fmt.Errorf("%w: state name cannot be empty", base.ErrInvalidArgument)
	}

	node := Node{
		CurrentStateID:    opts.StateID,
		CurrentStateName:  opts.StateName,
		PreviousStateID:   opts.PreviousStateID,
		PreviousStateName: opts.PreviousStateName,
		ContactIdentity:   opts.ContactIdentity,
		StorageDate:       e.now(),
	}

	if opts.FireAndForget {
		return e.Send(ctx, e.CreateObserveCommand(URI, node, lime.MediaTypeJSON))
	}
	_, err := e.Process(ctx, e.CreateSetCommand(URI, node, lime.MediaTypeJSON))
	return err
}
