// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEnvelope is returned when bytes are not a LIME envelope.
var ErrMalformedEnvelope = errors.New("lime: malformed envelope")

// probe captures only the fields needed to classify an envelope.
type probe struct {
	State   *json.RawMessage `json:"state"`
	Method  *json.RawMessage `json:"method"`
	Event   *json.RawMessage `json:"event"`
	Content *json.RawMessage `json:"content"`
	Type    *json.RawMessage `json:"type"`
}

// Classify returns the kind of the raw envelope without fully decoding it.
func Classify(raw []byte) (Kind, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	switch {
	case p.State != nil:
		return KindSession, nil
	case p.Method != nil:
		return KindCommand, nil
	case p.Event != nil:
		return KindNotification, nil
	case p.Content != nil, p.Type != nil:
		return KindMessage, nil
	}
	return "", fmt.Errorf("%w: unknown envelope type", ErrMalformedEnvelope)
}

// Decode parses raw JSON into the matching envelope type.
func Decode(raw []byte) (Enveloper, error) {
	kind, err := Classify(raw)
	if err != nil {
		return nil, err
	}
	var env Enveloper
	switch kind {
	case KindSession:
		env = &Session{}
	case KindCommand:
		env = &Command{}
	case KindNotification:
		env = &Notification{}
	default:
		env = &Message{}
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEnvelope, kind, err)
	}
	return env, nil
}

// Encode serializes an envelope.
func Encode(env Enveloper) ([]byte, error) {
	return json.Marshal(env)
}
