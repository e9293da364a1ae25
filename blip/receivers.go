// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blip

import (
	"context"
	"sync"

	"github.com/ManuGH/blip-sdk-go/lime"
)

// Handler processes an inbound envelope.
type Handler[T lime.Enveloper] func(ctx context.Context, env T) error

// Predicate selects the envelopes a handler receives. A nil predicate matches all.
type Predicate[T lime.Enveloper] func(env T) bool

type (
	MessageHandler        = Handler[*lime.Message]
	NotificationHandler   = Handler[*lime.Notification]
	CommandHandler        = Handler[*lime.Command]
	MessagePredicate      = Predicate[*lime.Message]
	NotificationPredicate = Predicate[*lime.Notification]
	CommandPredicate      = Predicate[*lime.Command]
)

type receiver[T lime.Enveloper] struct {
	id        uint64
	predicate Predicate[T]
	handler   Handler[T]
}

// receiverSet is an ordered, concurrency-safe list of receivers.
type receiverSet[T lime.Enveloper] struct {
	mu     sync.RWMutex
	nextID uint64
	items  []receiver[T]
}

func (s *receiverSet[T]) add(pred Predicate[T], h Handler[T]) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.items = append(s.items, receiver[T]{id: id, predicate: pred, handler: h})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, r := range s.items {
				if r.id == id {
					s.items = append(s.items[:i:i], s.items[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *receiverSet[T]) matching(env T) []Handler[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handler[T], 0, len(s.items))
	for _, r := range s.items {
		if r.predicate == nil || r.predicate(env) {
			out = append(out, r.handler)
		}
	}
	return out
}

// AddMessageReceiver registers h for messages matching pred and returns a
// function that removes it.
func (c *Client) AddMessageReceiver(pred MessagePredicate, h MessageHandler) func() {
	return c.messageReceivers.add(pred, h)
}

// AddNotificationReceiver registers h for notifications matching pred.
func (c *Client) AddNotificationReceiver(pred NotificationPredicate, h NotificationHandler) func() {
	return c.notificationReceivers.add(pred, h)
}

// AddCommandReceiver registers h for inbound command requests matching pred.
func (c *Client) AddCommandReceiver(pred CommandPredicate, h CommandHandler) func() {
	return c.commandReceivers.add(pred, h)
}

// MessageOfType matches messages with the given media type.
func MessageOfType(mediaType string) MessagePredicate {
	return func(m *lime.Message) bool { return m.Type == mediaType }
}

// NotificationOfEvent matches notifications with the given event.
func NotificationOfEvent(event lime.Event) NotificationPredicate {
	return func(n *lime.Notification) bool { return n.Event == event }
}
