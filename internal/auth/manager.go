package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/store"
)

// Flavour selects how sessions are persisted and restored.
type Flavour int

const (
	// FlavourDevice persists user and token; restore needs no network call.
	FlavourDevice Flavour = iota
	// FlavourBrowser persists only the token; restore fetches the profile.
	FlavourBrowser
)

// Backend is the part of the API client the session manager needs.
type Backend interface {
	Authenticate(ctx context.Context, code string) (string, core.User, error)
	Profile(ctx context.Context) (core.User, error)
	SetToken(token string)
	ClearToken()
}

// Options configures a Manager.
type Options struct {
	ClientID    string
	Scope       string
	RedirectURL string
	Flavour     Flavour
	// Now is used for token expiry checks; defaults to time.Now.
	Now func() time.Time
}

// Manager owns the signed-in user and drives the session state machine.
// Side effects (storage, API client header, authorization flow) happen
// here; the transitions themselves are computed by Transition.
type Manager struct {
	backend    Backend
	store      store.SessionStore
	authorizer Authorizer
	oauth      *oauth2.Config
	flavour    Flavour
	now        func() time.Time
	log        *zerolog.Logger

	mu          sync.Mutex
	state       State
	user        *core.User
	loading     bool
	subscribers map[chan State]struct{}
}

// NewManager creates a manager in StateUnknown with the loading flag set.
func NewManager(backend Backend, st store.SessionStore, authorizer Authorizer, opts Options, logger *zerolog.Logger) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		backend:     backend,
		store:       st,
		authorizer:  authorizer,
		oauth:       OAuthConfig(opts.ClientID, opts.Scope, opts.RedirectURL),
		flavour:     opts.Flavour,
		now:         now,
		log:         logger,
		state:       StateUnknown,
		loading:     true,
		subscribers: make(map[chan State]struct{}),
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Loading reports whether a restore or sign-in is still running.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// SignInURL returns an authorize URL for a link-based sign-in.
func (m *Manager) SignInURL() string {
	return m.oauth.AuthCodeURL("")
}

// Subscribe returns a channel receiving every new state. Slow subscribers
// miss states. The returned func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Restore loads the persisted session. The loading flag is cleared on
// return whatever the outcome.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUnknown {
		st := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: restore on %s", core.ErrInvalidTransition, st)
	}
	m.loading = true
	m.mu.Unlock()
	defer m.setLoading(false)

	sess, err := store.LoadSession(ctx, m.store)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read persisted session")
		m.apply(EventRestoreEmpty, nil)
		return fmt.Errorf("restore session: %w", err)
	}

	if sess.Token != "" && TokenExpired(sess.Token, m.now()) {
		m.log.Info().Msg("persisted token expired, discarding session")
		if clearErr := store.ClearSession(ctx, m.store); clearErr != nil {
			m.log.Warn().Err(clearErr).Msg("failed to clear expired session")
		}
		sess = store.Session{}
	}

	switch {
	case sess.Token != "" && sess.User != nil:
		m.backend.SetToken(sess.Token)
		m.apply(EventRestored, sess.User)
		m.log.Debug().Str("login", sess.User.Login).Msg("session restored")
		return nil

	case sess.Token != "" && m.flavour == FlavourBrowser:
		m.backend.SetToken(sess.Token)
		user, profileErr := m.backend.Profile(ctx)
		if profileErr != nil {
			m.backend.ClearToken()
			if errors.Is(profileErr, core.ErrUnauthorized) {
				if clearErr := store.ClearSession(ctx, m.store); clearErr != nil {
					m.log.Warn().Err(clearErr).Msg("failed to clear rejected session")
				}
			}
			m.log.Warn().Err(profileErr).Msg("failed to fetch profile for persisted token")
			m.apply(EventRestoreEmpty, nil)
			return nil
		}
		m.apply(EventRestored, &user)
		return nil
	}

	m.apply(EventRestoreEmpty, nil)
	return nil
}

// SignIn runs the external authorization flow and exchanges the code.
// Denial, cancellation and exchange failures return the session to
// StateSignedOut without an error; check State afterwards. A second call
// while authorizing returns core.ErrSignInInProgress.
func (m *Manager) SignIn(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.setLoading(false)

	req := NewAuthorizationRequest(m.oauth)
	res, err := m.authorizer.Authorize(ctx, req)
	if err != nil {
		m.log.Error().Err(err).Msg("authorization flow failed")
		m.apply(EventAuthorizationFailed, nil)
		return nil
	}
	if !res.Granted() {
		m.log.Info().Str("result", string(res.Type)).Str("error", res.Error).Msg("authorization not granted")
		m.apply(EventAuthorizationFailed, nil)
		return nil
	}

	m.exchange(ctx, res.Code)
	return nil
}

// CompleteRedirect finishes a redirect-based sign-in. When rawURL carries
// a code query parameter it is exchanged like a granted SignIn. A denial
// returns to StateSignedOut without an error. It returns rawURL with the
// code removed.
func (m *Manager) CompleteRedirect(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, fmt.Errorf("parse redirect url: %w", err)
	}

	q := u.Query()
	code := q.Get("code")
	oauthErr := q.Get("error")
	if code == "" && oauthErr == "" {
		return rawURL, nil
	}
	q.Del("code")
	q.Del("error")
	q.Del("state")
	u.RawQuery = q.Encode()
	clean := u.String()

	if err := m.begin(); err != nil {
		return clean, err
	}
	defer m.setLoading(false)

	if oauthErr != "" || code == "" {
		m.log.Info().Str("error", oauthErr).Msg("redirect carried no authorization code")
		m.apply(EventAuthorizationFailed, nil)
		return clean, nil
	}

	m.exchange(ctx, code)
	return clean, nil
}

// SignOut clears the persisted session and the in-memory user. Storage
// failures are logged and returned, but local state is always cleared.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	if _, err := Transition(m.state, EventSignedOut); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	clearErr := store.ClearSession(ctx, m.store)
	if clearErr != nil {
		m.log.Error().Err(clearErr).Msg("failed to clear persisted session")
	}

	m.backend.ClearToken()
	m.apply(EventSignedOut, nil)
	return clearErr
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Transition(m.state, EventSignInStarted)
	if err != nil {
		return err
	}
	m.loading = true
	m.setStateLocked(next)
	return nil
}

// exchange trades code for a session. On any failure nothing stays
// persisted and the API client keeps no token.
func (m *Manager) exchange(ctx context.Context, code string) {
	token, user, err := m.backend.Authenticate(ctx, code)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to exchange authorization code")
		m.apply(EventAuthorizationFailed, nil)
		return
	}

	if err := m.persist(ctx, token, user); err != nil {
		m.log.Error().Err(err).Msg("failed to persist session")
		if clearErr := store.ClearSession(ctx, m.store); clearErr != nil {
			m.log.Warn().Err(clearErr).Msg("failed to roll back partial session")
		}
		m.apply(EventAuthorizationFailed, nil)
		return
	}

	m.backend.SetToken(token)
	m.apply(EventAuthorized, &user)
	m.log.Info().Str("login", user.Login).Msg("signed in")
}

func (m *Manager) persist(ctx context.Context, token string, user core.User) error {
	if m.flavour == FlavourDevice {
		if err := store.SaveUser(ctx, m.store, user); err != nil {
			return err
		}
	}
	return store.SaveToken(ctx, m.store, token)
}

// apply runs a transition and updates the user. user is ignored unless
// the target state is StateSignedIn.
func (m *Manager) apply(e Event, user *core.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Transition(m.state, e)
	if err != nil {
		m.log.Warn().Err(err).Msg("ignored session event")
		return
	}
	if next == StateSignedIn && user != nil {
		u := *user
		m.user = &u
	} else if next != StateSignedIn {
		m.user = nil
	}
	m.setStateLocked(next)
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	for ch := range m.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = v
}
