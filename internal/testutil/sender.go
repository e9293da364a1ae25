package testutil

import (
	"context"
	"sync"

	"github.com/ManuGH/blip-sdk-go/lime"
)

// Sender records what the extensions send and answers ProcessCommand from
// Respond. Without Respond every command succeeds with no resource.
type Sender struct {
	mu            sync.Mutex
	Processed     []*lime.Command
	Sent          []*lime.Command
	Messages      []*lime.Message
	Notifications []*lime.Notification

	Respond func(cmd *lime.Command) (*lime.Command, error)
}

// NewSender returns an empty recording sender.
func NewSender() *Sender { return &Sender{} }

// RespondWith makes every processed command succeed with resource.
func (s *Sender) RespondWith(mediaType string, resource any) *Sender {
	s.Respond = func(cmd *lime.Command) (*lime.Command, error) {
		return Success(cmd, mediaType, resource), nil
	}
	return s
}

// FailWith makes every processed command fail with the given reason.
func (s *Sender) FailWith(code int, description string) *Sender {
	s.Respond = func(cmd *lime.Command) (*lime.Command, error) {
		resp := reply(cmd)
		resp.Status = lime.StatusFailure
		resp.Reason = &lime.Reason{Code: code, Description: description}
		return nil, &lime.CommandError{Response: resp}
	}
	return s
}

// Success builds a success response for cmd.
func Success(cmd *lime.Command, mediaType string, resource any) *lime.Command {
	resp := reply(cmd)
	resp.Status = lime.StatusSuccess
	resp.Type = mediaType
	resp.Resource = resource
	return resp
}

func reply(cmd *lime.Command) *lime.Command {
	return &lime.Command{
		Envelope: lime.Envelope{ID: cmd.ID, From: cmd.To},
		Method:   cmd.Method,
		URI:      cmd.URI,
	}
}

func (s *Sender) ProcessCommand(_ context.Context, cmd *lime.Command) (*lime.Command, error) {
	s.mu.Lock()
	s.Processed = append(s.Processed, cmd)
	respond := s.Respond
	s.mu.Unlock()
	if respond == nil {
		return Success(cmd, "", nil), nil
	}
	return respond(cmd)
}

func (s *Sender) SendCommand(_ context.Context, cmd *lime.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, cmd)
	return nil
}

func (s *Sender) SendMessage(_ context.Context, msg *lime.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
	return nil
}

func (s *Sender) SendNotification(_ context.Context, n *lime.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, n)
	return nil
}

// Last returns the most recently processed command, or nil.
func (s *Sender) Last() *lime.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Processed) == 0 {
		return nil
	}
	return s.Processed[len(s.Processed)-1]
}
