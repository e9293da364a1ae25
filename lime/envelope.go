// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh envelope id.
func NewID() string {
	return uuid.NewString()
}

// Envelope holds the fields shared by every LIME envelope.
type Envelope struct {
	ID       string            `json:"id,omitempty"`
	From     Node              `json:"from,omitzero"`
	To       Node              `json:"to,omitzero"`
	PP       Node              `json:"pp,omitzero"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Header returns the envelope itself so embedding types satisfy Enveloper.
func (e *Envelope) Header() *Envelope { return e }

// Enveloper is implemented by Message, Notification, Command and Session.
type Enveloper interface {
	Header() *Envelope
	Kind() Kind
}

// Kind identifies the envelope type on the wire.
type Kind string

const (
	KindMessage      Kind = "message"
	KindNotification Kind = "notification"
	KindCommand      Kind = "command"
	KindSession      Kind = "session"
)

// Reason explains a failure.
type Reason struct {
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
}

func (r Reason) String() string {
	if r.Description == "" {
		return fmt.Sprintf("reason %d", r.Code)
	}
	return fmt.Sprintf("%s (code %d)", r.Description, r.Code)
}

// Well-known reason codes.
const (
	ReasonGeneralError                = 1
	ReasonSessionError                = 11
	ReasonSessionAuthenticationFailed = 13
	ReasonValidationError             = 21
	ReasonAuthorizationError          = 31
	ReasonRoutingError                = 41
	ReasonDispatchError               = 51
	ReasonCommandProcessingError      = 61
	ReasonCommandResourceNotSupported = 62
	ReasonCommandMethodNotSupported   = 63
	ReasonCommandInvalidArgument      = 64
	ReasonCommandTimeout              = 66
	ReasonCommandResourceNotFound     = 67
	ReasonApplicationError            = 101
)

// Message carries content to a destination.
type Message struct {
	Envelope
	Type    string `json:"type"`
	Content any    `json:"content"`
}

func (*Message) Kind() Kind { return KindMessage }

// Event is a notification event.
type Event string

const (
	EventAccepted   Event = "accepted"
	EventValidated  Event = "validated"
	EventAuthorized Event = "authorized"
	EventDispatched Event = "dispatched"
	EventReceived   Event = "received"
	EventConsumed   Event = "consumed"
	EventFailed     Event = "failed"
)

// Notification reports the processing state of a message.
type Notification struct {
	Envelope
	Event  Event   `json:"event"`
	Reason *Reason `json:"reason,omitempty"`
}

func (*Notification) Kind() Kind { return KindNotification }

// Method is a command method.
type Method string

const (
	MethodGet         Method = "get"
	MethodSet         Method = "set"
	MethodMerge       Method = "merge"
	MethodDelete      Method = "delete"
	MethodObserve     Method = "observe"
	MethodSubscribe   Method = "subscribe"
	MethodUnsubscribe Method = "unsubscribe"
)

// Status is the outcome carried by a command response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPending Status = "pending"
)

// Command is a request/response envelope addressing a resource URI.
type Command struct {
	Envelope
	Method   Method  `json:"method"`
	URI      string  `json:"uri,omitempty"`
	Type     string  `json:"type,omitempty"`
	Resource any     `json:"resource,omitempty"`
	Status   Status  `json:"status,omitempty"`
	Reason   *Reason `json:"reason,omitempty"`
}

func (*Command) Kind() Kind { return KindCommand }

// IsResponse reports whether the command carries a status.
func (c *Command) IsResponse() bool {
	return c.Status != ""
}

// Failed reports whether the command is a failure response.
func (c *Command) Failed() bool {
	return c.Status == StatusFailure
}

// ResourceInto converts the generic JSON resource into v.
func (c *Command) ResourceInto(v any) error {
	if c.Resource == nil {
		return nil
	}
	raw, err := json.Marshal(c.Resource)
	if err != nil {
		return fmt.Errorf("lime: encode resource: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("lime: decode resource into %T: %w", v, err)
	}
	return nil
}

// SessionState is the state of a LIME session.
type SessionState string

const (
	SessionNew            SessionState = "new"
	SessionNegotiating    SessionState = "negotiating"
	SessionAuthenticating SessionState = "authenticating"
	SessionEstablished    SessionState = "established"
	SessionFinishing      SessionState = "finishing"
	SessionFinished       SessionState = "finished"
	SessionFailed         SessionState = "failed"
)

// Authentication schemes.
const (
	SchemeKey       = "key"
	SchemePlain     = "plain"
	SchemeGuest     = "guest"
	SchemeTransport = "transport"
)

// Session negotiates and tracks a connection-level LIME session.
type Session struct {
	Envelope
	State              SessionState   `json:"state"`
	EncryptionOptions  []string       `json:"encryptionOptions,omitempty"`
	Encryption         string         `json:"encryption,omitempty"`
	CompressionOptions []string       `json:"compressionOptions,omitempty"`
	Compression        string         `json:"compression,omitempty"`
	Scheme             string         `json:"scheme,omitempty"`
	Authentication     map[string]any `json:"authentication,omitempty"`
	Reason             *Reason        `json:"reason,omitempty"`
}

func (*Session) Kind() Kind { return KindSession }
