package core

// EventKind is a notification the hub emits to push subscribers.
type EventKind int

const (
	// EventNewMessage notifies subscribers about a freshly stored message.
	EventNewMessage EventKind = iota
)

// Event is sent to subscribers to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Message Message
}
