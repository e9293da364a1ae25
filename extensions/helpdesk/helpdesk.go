// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package helpdesk forwards conversations to human agents and manages tickets.
package helpdesk

import (
	"context"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/extensions/base"
	"github.com/ManuGH/blip-sdk-go/lime"
)

const (
	Domain = "desk.msging.net"

	forwardPrefix = "fwd:"
)

// Ticket statuses used by the desk.
const (
	StatusOpen         = "Open"
	StatusWaiting      = "Waiting"
	StatusAssigned     = "Assigned"
	StatusClosedClient = "ClosedClient"
)

// Ticket is an application/vnd.iris.ticket+json document.
type Ticket struct {
	ID               string `json:"id,omitempty"`
	Status           string `json:"status,omitempty"`
	CustomerIdentity string `json:"customerIdentity,omitempty"`
	AgentIdentity    string `json:"agentIdentity,omitempty"`
	Context          any    `json:"context,omitempty"`
}

type Extension struct {
	base.Base
}

func New(sender base.Sender) *Extension {
	return &Extension{Base: base.New(sender, base.Postmaster(Domain))}
}

// ForwardMessageToAgent relays a customer message to the desk. The desk
// addresses the customer by its escaped node.
func (e *Extension) ForwardMessageToAgent(ctx context.Context, msg *lime.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message cannot be nil", base.ErrInvalidArgument)
	}
	if msg.From.IsZero() {
		return fmt.Errorf("%w: message sender cannot be empty", base.ErrInvalidArgument)
	}
	id := msg.ID
	if id == "" {
		id = lime.NewID()
	}
	return e.Sender().SendMessage(ctx, &lime.Message{
		Envelope: lime.Envelope{
			ID: forwardPrefix + id,
			To: lime.NewNode(base.Escape(msg.From.String()), Domain, ""),
		},
		Type:    msg.Type,
		Content: msg.Content,
	})
}

// IsFromAgent reports whether msg was sent by a desk agent.
func IsFromAgent(msg *lime.Message) bool {
	return msg != nil && msg.From.Domain == Domain
}

// CreateTicket opens a ticket for customer with an optional context document.
func (e *Extension) CreateTicket(ctx context.Context, customer lime.Identity, ticketContext any) (*Ticket, error) {
	if customer.IsZero() {
		return nil, fmt.Errorf("%w: customer identity cannot be empty", base.ErrInvalidArgument)
	}
	if ticketContext == nil {
		ticketContext = map[string]any{}
	}
	cmd := e.CreateSetCommand("/tickets/"+base.Escape(customer.String()), ticketContext, "")
	return e.ticket(ctx, cmd)
}

func (e *Extension) CreateTicketWithData(ctx context.Context, t *Ticket) (*Ticket, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: ticket cannot be nil", base.ErrInvalidArgument)
	}
	return e.ticket(ctx, e.CreateSetCommand("/tickets", t, lime.MediaTypeTicket))
}

// CloseTicketAsUser closes the ticket on the customer's behalf.
func (e *Extension) CloseTicketAsUser(ctx context.Context, ticketID string) error {
	return e.closeTicket(ctx, "/tickets/change-status", ticketID)
}

// CloseTicketAsUserWithoutRedirect closes the ticket without sending the
// customer back to the bot flow.
func (e *Extension) CloseTicketAsUserWithoutRedirect(ctx context.Context, ticketID string) error {
	return e.closeTicket(ctx, "/tickets/change-status-without-redirect", ticketID)
}

func (e *Extension) closeTicket(ctx context.Context, uri, ticketID string) error {
	if err := base.Required("ticket id", ticketID); err != nil {
		return err
	}
	t := Ticket{ID: ticketID, Status: StatusClosedClient}
	_, err := e.Process(ctx, e.CreateSetCommand(uri, t, lime.MediaTypeTicket))
	return err
}

// GetUserOpenTicket returns the customer's open ticket, or nil.
func (e *Extension) GetUserOpenTicket(ctx context.Context, customer lime.Identity) (*Ticket, error) {
	return e.firstTicket(ctx, customer, "status eq 'Open'")
}

// GetCustomerActiveTicket returns the customer's open, waiting or assigned
// ticket, or nil.
func (e *Extension) GetCustomerActiveTicket(ctx context.Context, customer lime.Identity) (*Ticket, error) {
	return e.firstTicket(ctx, customer, "(status eq 'Open' or status eq 'Waiting' or status eq 'Assigned')")
}

func (e *Extension) firstTicket(ctx context.Context, customer lime.Identity, statusFilter string) (*Ticket, error) {
	if customer.IsZero() {
		return nil, fmt.Errorf("%w: customer identity cannot be empty", base.ErrInvalidArgument)
	}
	filter := fmt.Sprintf("customerIdentity eq '%s' and %s", customer, statusFilter)
	resp, err := e.Process(ctx, e.CreateGetCommand(base.BuildResourceQuery("/tickets", base.Param("$filter", filter))))
	if err != nil {
		return nil, err
	}
	coll, err := base.ParseCollection[Ticket](resp)
	if err != nil {
		return nil, err
	}
	if len(coll.Items) == 0 {
		return nil, nil
	}
	return &coll.Items[0], nil
}

func (e *Extension) ticket(ctx context.Context, cmd *lime.Command) (*Ticket, error) {
	resp, err := e.Process(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Resource == nil {
		return nil, nil
	}
	var t Ticket
	if err := resp.ResourceInto(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
