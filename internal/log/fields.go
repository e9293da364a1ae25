// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldEnvelopeID = "envelope_id"
	FieldSessionID  = "session_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldTransport = "transport"

	// Envelope fields
	FieldKind     = "kind"
	FieldMethod   = "method"
	FieldURI      = "uri"
	FieldStatus   = "status"
	FieldFrom     = "from"
	FieldTo       = "to"
	FieldMedia    = "media_type"
	FieldReason   = "reason_code"
	FieldAttempt  = "attempt"
	FieldDuration = "duration"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
)
