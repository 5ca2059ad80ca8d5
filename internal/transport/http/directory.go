package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/heatchat/internal/core"
)

// userDirectory maps authorization codes to users. Every non-empty code is
// accepted and yields a stable user derived from it.
type userDirectory struct {
	mu    sync.RWMutex
	users map[string]core.User
}

func newUserDirectory() *userDirectory {
	return &userDirectory{users: make(map[string]core.User)}
}

func (d *userDirectory) userForCode(code string) core.User {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(code)).String()

	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return u
	}
	u := core.User{
		ID:        id,
		Login:     code,
		Name:      code,
		AvatarURL: "https://avatars.githubusercontent.com/" + code,
	}
	d.users[id] = u
	return u
}

func (d *userDirectory) get(id string) (core.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	return u, ok
}

// messageLog stores messages in memory and publishes each new one.
type messageLog struct {
	hub *core.Hub

	mu       sync.RWMutex
	messages []core.Message
}

func newMessageLog(hub *core.Hub) *messageLog {
	return &messageLog{hub: hub}
}

func (l *messageLog) add(user core.User, text string) core.Message {
	msg := core.Message{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
		User:      user,
	}

	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	l.hub.Publish(msg)
	return msg
}

// last returns up to n messages, newest first.
func (l *messageLog) last(n int) []core.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]core.Message, 0, n)
	for i := len(l.messages) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.messages[i])
	}
	return out
}
