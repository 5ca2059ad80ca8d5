package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

// Session keys, prefixed by the configured namespace.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// SessionStore is a small persistent key-value store for session data.
type SessionStore interface {
	// Get returns the value for key, or core.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Session is the persisted sign-in state.
type Session struct {
	User  *core.User
	Token string
}

// Namespaced wraps a SessionStore and prefixes every key.
type Namespaced struct {
	SessionStore
	prefix string
}

// WithPrefix returns a store whose keys are prefixed with prefix.
func WithPrefix(s SessionStore, prefix string) *Namespaced {
	return &Namespaced{SessionStore: s, prefix: prefix}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.SessionStore.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.SessionStore.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Remove(ctx context.Context, key string) error {
	return n.SessionStore.Remove(ctx, n.prefix+key)
}

// LoadSession reads the user and token keys. Missing keys leave the
// corresponding field empty; only read failures are returned.
func LoadSession(ctx context.Context, s SessionStore) (Session, error) {
	var sess Session

	raw, err := s.Get(ctx, KeyUser)
	switch {
	case err == nil:
		var u proto.User
		if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr != nil {
			return Session{}, fmt.Errorf("decode stored user: %w", jsonErr)
		}
		user := u.ToCore()
		sess.User = &user
	case !errors.Is(err, core.ErrNotFound):
		return Session{}, fmt.Errorf("read user: %w", err)
	}

	token, err := s.Get(ctx, KeyToken)
	switch {
	case err == nil:
		sess.Token = token
	case !errors.Is(err, core.ErrNotFound):
		return Session{}, fmt.Errorf("read token: %w", err)
	}

	return sess, nil
}

// SaveUser serializes and stores the user key.
func SaveUser(ctx context.Context, s SessionStore, user core.User) error {
	data, err := json.Marshal(proto.UserFromCore(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return nil
}

// SaveToken stores the token key.
func SaveToken(ctx context.Context, s SessionStore, token string) error {
	if err := s.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// ClearSession removes both keys. Both removals are attempted; failures are joined.
func ClearSession(ctx context.Context, s SessionStore) error {
	var errs []error
	if err := s.Remove(ctx, KeyUser); err != nil {
		errs = append(errs, fmt.Errorf("remove user: %w", err))
	}
	if err := s.Remove(ctx, KeyToken); err != nil {
		errs = append(errs, fmt.Errorf("remove token: %w", err))
	}
	return errors.Join(errs...)
}
