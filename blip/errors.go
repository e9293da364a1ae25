// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"errors"
	"fmt"

	"github.com/ManuGH/blip-sdk-go/lime"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnauthorized        = errors.New("blip: credentials rejected")
	ErrBadRequest          = errors.New("blip: request rejected as malformed")
	ErrNotFound            = errors.New("blip: endpoint not found")
	ErrUpstreamError       = errors.New("blip: server error (5xx)")
	ErrUnavailable         = errors.New("blip: host unreachable or transport failure")
	ErrBadResponse         = errors.New("blip: invalid response format or malformed data")
	ErrUnsupportedEnvelope = errors.New("blip: envelope kind not supported by transport")

	ErrCommandTimeout = errors.New("blip: command response timed out")
	ErrNotConnected   = errors.New("blip: client is not connected")
	ErrClosed         = errors.New("blip: client is closed")
	ErrInvalidOptions = errors.New("blip: invalid options")
	ErrSessionFailed  = errors.New("blip: session negotiation failed")
)

// CommandError is the failure response of a command. See lime.CommandError.
type CommandError = lime.CommandError

// TransportError wraps a sentinel error with the transport call that produced it.
type TransportError struct {
	Sentinel  error
	Transport string
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s transport: %s: %v", e.Transport, e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Sentinel
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrUpstreamError)
}
