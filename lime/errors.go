// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lime

import (
	"errors"
	"fmt"
	"strings"
)

// CommandError is returned when the server answers a command with a failure status.
type CommandError struct {
	Response *Command
}

func (e *CommandError) Error() string {
	if e.Response == nil {
		return "lime: command failed"
	}
	msg := fmt.Sprintf("lime: %s %s failed", e.Response.Method, e.Response.URI)
	if e.Response.Reason != nil {
		msg += ": " + e.Response.Reason.String()
	}
	return msg
}

// Reason returns the failure reason, or nil when the server sent none.
func (e *CommandError) Reason() *Reason {
	if e.Response == nil {
		return nil
	}
	return e.Response.Reason
}

// IsNotFound reports whether err is a failure response meaning the resource
// does not exist. BLiP signals this with reason 67 and, on some routes, only
// with a "not found" description.
func IsNotFound(err error) bool {
	var cerr *CommandError
	if !errors.As(err, &cerr) {
		return false
	}
	r := cerr.Reason()
	if r == nil {
		return false
	}
	return r.Code == ReasonCommandResourceNotFound ||
		strings.Contains(strings.ToLower(r.Description), "not found")
}
