package core

// DefaultWindowSize is the number of messages shown at once.
const DefaultWindowSize = 3

// Window is the fixed-size visible slice of the feed, most recent first.
// Operations return a new Window and never modify the receiver.
type Window struct {
	size     int
	messages []Message
}

// NewWindow creates an empty window holding at most size messages.
// A non-positive size falls back to DefaultWindowSize.
func NewWindow(size int) Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return Window{size: size}
}

// Size is the window capacity.
func (w Window) Size() int {
	if w.size <= 0 {
		return DefaultWindowSize
	}
	return w.size
}

// Len returns the number of messages currently shown.
func (w Window) Len() int {
	return len(w.messages)
}

// Messages returns a copy of the shown messages.
func (w Window) Messages() []Message {
	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Replace returns a window showing the first Size() messages of msgs.
func (w Window) Replace(msgs []Message) Window {
	n := min(len(msgs), w.Size())
	next := make([]Message, n)
	copy(next, msgs[:n])
	return Window{size: w.Size(), messages: next}
}

// Push returns a window with msg prepended and the oldest message dropped
// when the window is full.
func (w Window) Push(msg Message) Window {
	n := min(len(w.messages)+1, w.Size())
	next := make([]Message, 0, n)
	next = append(next, msg)
	next = append(next, w.messages[:n-1]...)
	return Window{size: w.Size(), messages: next}
}
