package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/store"
	"github.com/vovakirdan/heatchat/internal/store/memory"
)

type fakeBackend struct {
	mu sync.Mutex

	token      string
	setCalls   int
	clearCalls int

	authToken string
	authUser  core.User
	authErr   error
	authCodes []string

	profile      core.User
	profileErr   error
	profileCalls int
}

func (f *fakeBackend) Authenticate(_ context.Context, code string) (string, core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCodes = append(f.authCodes, code)
	if f.authErr != nil {
		return "", core.User{}, f.authErr
	}
	return f.authToken, f.authUser, nil
}

func (f *fakeBackend) Profile(context.Context) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	return f.profile, f.profileErr
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	f.token = token
}

func (f *fakeBackend) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.token = ""
}

func (f *fakeBackend) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// flakyStore fails writes or removals for selected keys.
type flakyStore struct {
	*memory.Store
	failSet    map[string]bool
	failRemove bool
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failSet[key] {
		return errors.New("write failed")
	}
	return s.Store.Set(ctx, key, value)
}

func (s *flakyStore) Remove(ctx context.Context, key string) error {
	if s.failRemove {
		return errors.New("remove failed")
	}
	return s.Store.Remove(ctx, key)
}

var octocat = core.User{ID: "583231", Login: "octocat", Name: "The Octocat", AvatarURL: "https://avatars.example/583231"}

func granted(code string) StaticAuthorizer {
	return StaticAuthorizer{Result: AuthorizationResult{Type: ResultSuccess, Code: code}}
}

func newTestManager(t *testing.T, backend Backend, st store.SessionStore, authorizer Authorizer, flavour Flavour) *Manager {
	t.Helper()

	logger := zerolog.Nop()
	return NewManager(backend, st, authorizer, Options{
		ClientID: "test-client",
		Scope:    "read:user",
		Flavour:  flavour,
		Now:      func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}, &logger)
}

// restoredManager returns a manager that already went through an empty restore.
func restoredManager(t *testing.T, backend Backend, st store.SessionStore, authorizer Authorizer, flavour Flavour) *Manager {
	t.Helper()

	m := newTestManager(t, backend, st, authorizer, flavour)
	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.State() != StateSignedOut {
		t.Fatalf("expected signed out after empty restore, got %s", m.State())
	}
	return m
}

func assertNoSession(t *testing.T, st store.SessionStore) {
	t.Helper()

	sess, err := store.LoadSession(context.Background(), st)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.User != nil || sess.Token != "" {
		t.Fatalf("expected nothing persisted, got %+v", sess)
	}
}
