package proto

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/heatchat/internal/core"
)

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	// EventNewMessage carries a freshly stored message on the push channel.
	EventNewMessage = "new_message"
)

// User is the JSON shape of a backend user.
type User struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Message is the JSON shape of a backend message.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user"`
}

// AuthenticateRequest exchanges an authorization code for a session.
type AuthenticateRequest struct {
	Code string `json:"code"`
}

// AuthResponse is returned by the authenticate endpoint.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateMessageRequest posts a new message to the feed.
type CreateMessageRequest struct {
	Text string `json:"text"`
}

// Outbound is the envelope for push channel frames.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorResponse is the HTTP error body. Code is one of the core.ErrCode values.
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// UserFromCore maps a domain user to its wire form.
func UserFromCore(u core.User) User {
	return User{ID: u.ID, Login: u.Login, Name: u.Name, AvatarURL: u.AvatarURL}
}

// ToCore maps a wire user to the domain model.
func (u User) ToCore() core.User {
	return core.User{ID: u.ID, Login: u.Login, Name: u.Name, AvatarURL: u.AvatarURL}
}

// MessageFromCore maps a domain message to its wire form.
func MessageFromCore(m core.Message) Message {
	return Message{ID: m.ID, Text: m.Text, CreatedAt: m.CreatedAt, User: UserFromCore(m.User)}
}

// ToCore maps a wire message to the domain model.
func (m Message) ToCore() core.Message {
	return core.Message{ID: m.ID, Text: m.Text, CreatedAt: m.CreatedAt, User: m.User.ToCore()}
}

// MessagesToCore maps a slice of wire messages.
func MessagesToCore(msgs []Message) []core.Message {
	out := make([]core.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToCore())
	}
	return out
}

// NewMessageEvent builds the push frame for a new message.
func NewMessageEvent(m core.Message) (Outbound, error) {
	data, err := json.Marshal(MessageFromCore(m))
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Type: OutboundTypeEvent, Event: EventNewMessage, Data: data}, nil
}
