package core

import "time"

// Message is the domain model for a chat message produced by the backend.
// The client never mutates a Message; it only windows it.
type Message struct {
	ID        string
	Text      string
	CreatedAt time.Time
	User      User
}
