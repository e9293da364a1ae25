// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"

	"github.com/ManuGH/blip-sdk-go/lime"
)

// DeliverFunc receives envelopes read by a transport.
type DeliverFunc func(ctx context.Context, env lime.Enveloper)

// Transport moves envelopes between the client and BLiP.
type Transport interface {
	// Name labels metrics and logs ("http", "websocket").
	Name() string
	// Open prepares the transport. Inbound envelopes, including command
	// responses, are passed to deliver until Close.
	Open(ctx context.Context, deliver DeliverFunc) error
	Send(ctx context.Context, env lime.Enveloper) error
	Close(ctx context.Context) error
}
