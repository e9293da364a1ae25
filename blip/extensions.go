// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"sync"

	"github.com/ManuGH/blip-sdk-go/extensions/broadcast"
	"github.com/ManuGH/blip-sdk-go/extensions/bucket"
	"github.com/ManuGH/blip-sdk-go/extensions/builder"
	"github.com/ManuGH/blip-sdk-go/extensions/contacts"
	"github.com/ManuGH/blip-sdk-go/extensions/contactsjourney"
	"github.com/ManuGH/blip-sdk-go/extensions/delegation"
	"github.com/ManuGH/blip-sdk-go/extensions/directory"
	"github.com/ManuGH/blip-sdk-go/extensions/eventtracker"
	"github.com/ManuGH/blip-sdk-go/extensions/helpdesk"
	"github.com/ManuGH/blip-sdk-go/extensions/profile"
	"github.com/ManuGH/blip-sdk-go/extensions/resource"
	"github.com/ManuGH/blip-sdk-go/extensions/scheduler"
	"github.com/ManuGH/blip-sdk-go/extensions/threads"
	"github.com/ManuGH/blip-sdk-go/extensions/tunnel"
)

// extensions are built on first use and shared afterwards.
type extensions struct {
	broadcast       func() *broadcast.Extension
	bucket          func() *bucket.Extension
	builder         func() *builder.Extension
	contacts        func() *contacts.Extension
	contactsJourney func() *contactsjourney.Extension
	delegation      func() *delegation.Extension
	directory       func() *directory.Extension
	eventTracker    func() *eventtracker.Extension
	helpDesk        func() *helpdesk.Extension
	profile         func() *profile.Extension
	resource        func() *resource.Extension
	scheduler       func() *scheduler.Extension
	threads         func() *threads.Extension
	tunnel          func() *tunnel.Extension
}

func lazy[T any](c *Client, build func(*Client) T) func() T {
	return sync.OnceValue(func() T { return build(c) })
}

func newExtensions(c *Client) extensions {
	return extensions{
		broadcast:       lazy(c, func(c *Client) *broadcast.Extension { return broadcast.New(c) }),
		bucket:          lazy(c, func(c *Client) *bucket.Extension { return bucket.New(c) }),
		builder:         lazy(c, func(c *Client) *builder.Extension { return builder.New(c) }),
		contacts:        lazy(c, func(c *Client) *contacts.Extension { return contacts.New(c) }),
		contactsJourney: lazy(c, func(c *Client) *contactsjourney.Extension { return contactsjourney.New(c) }),
		delegation:      lazy(c, func(c *Client) *delegation.Extension { return delegation.New(c) }),
		directory:       lazy(c, func(c *Client) *directory.Extension { return directory.New(c) }),
		eventTracker:    lazy(c, func(c *Client) *eventtracker.Extension { return eventtracker.New(c) }),
		helpDesk:        lazy(c, func(c *Client) *helpdesk.Extension { return helpdesk.New(c) }),
		profile:         lazy(c, func(c *Client) *profile.Extension { return profile.New(c) }),
		resource:        lazy(c, func(c *Client) *resource.Extension { return resource.New(c) }),
		scheduler:       lazy(c, func(c *Client) *scheduler.Extension { return scheduler.New(c) }),
		threads:         lazy(c, func(c *Client) *threads.Extension { return threads.New(c) }),
		tunnel:          lazy(c, func(c *Client) *tunnel.Extension { return tunnel.New(c) }),
	}
}

func (c *Client) Broadcast() *broadcast.Extension             { return c.ext.broadcast() }
func (c *Client) Bucket() *bucket.Extension                   { return c.ext.bucket() }
func (c *Client) Builder() *builder.Extension                 { return c.ext.builder() }
func (c *Client) Contacts() *contacts.Extension               { return c.ext.contacts() }
func (c *Client) ContactsJourney() *contactsjourney.Extension { return c.ext.contactsJourney() }
func (c *Client) Delegation() *delegation.Extension           { return c.ext.delegation() }
func (c *Client) Directory() *directory.Extension             { return c.ext.directory() }
func (c *Client) EventTracker() *eventtracker.Extension       { return c.ext.eventTracker() }
func (c *Client) HelpDesk() *helpdesk.Extension               { return c.ext.helpDesk() }
func (c *Client) Profile() *profile.Extension                 { return c.ext.profile() }
func (c *Client) Resource() *resource.Extension               { return c.ext.resource() }
func (c *Client) Scheduler() *scheduler.Extension             { return c.ext.scheduler() }
func (c *Client) Threads() *threads.Extension                 { return c.ext.threads() }
func (c *Client) Tunnel() *tunnel.Extension                   { return c.ext.tunnel() }
