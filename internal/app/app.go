package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/api"
	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/config"
	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/feed"
	"github.com/vovakirdan/heatchat/internal/push"
	"github.com/vovakirdan/heatchat/internal/store"
	"github.com/vovakirdan/heatchat/internal/store/keyring"
	"github.com/vovakirdan/heatchat/internal/store/memory"
	"github.com/vovakirdan/heatchat/internal/store/sqlite"
)

// ErrNotSignedIn is returned by operations that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// App wires the session manager, API client and feed together.
type App struct {
	cfg     config.Config
	api     *api.Client
	session *auth.Manager
	store   store.SessionStore
	out     io.Writer
	log     *zerolog.Logger
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	store      store.SessionStore
	authorizer auth.Authorizer
	out        io.Writer
}

// WithStore uses st instead of the configured backend.
func WithStore(st store.SessionStore) Option {
	return func(o *options) { o.store = st }
}

// WithAuthorizer replaces the loopback authorization flow.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(o *options) { o.authorizer = a }
}

// WithOutput sets where user-facing prompts are written.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger, opts ...Option) (*App, error) {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		var err error
		st, err = openStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Debug().Str("backend", cfg.StoreBackend).Str("path", cfg.StorePath).Msg("session store opened")
	}
	namespaced := store.WithPrefix(st, cfg.KeyPrefix)

	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout)
	logger.Debug().Str("api_url", client.BaseURL()).Str("flavour", cfg.Flavour).Msg("api client ready")

	authorizer := o.authorizer
	redirectURL := ""
	if authorizer == nil {
		loopback := auth.NewLoopbackAuthorizer(cfg.CallbackAddr, auth.PrintOpener(o.out), logger)
		authorizer = loopback
		redirectURL = loopback.RedirectURL()
	}

	flavour := auth.FlavourDevice
	if cfg.Flavour == config.FlavourBrowser {
		flavour = auth.FlavourBrowser
	}

	session := auth.NewManager(client, namespaced, authorizer, auth.Options{
		ClientID:    cfg.ClientID,
		Scope:       cfg.Scope,
		RedirectURL: redirectURL,
		Flavour:     flavour,
	}, logger)

	return &App{
		cfg:     cfg,
		api:     client,
		session: session,
		store:   st,
		out:     o.out,
		log:     logger,
	}, nil
}

func openStore(cfg config.Config) (store.SessionStore, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreKeyring:
		return keyring.Open(filepath.Dir(cfg.StorePath))
	case config.StoreSQLite, "":
		return sqlite.New(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Session exposes the session manager.
func (a *App) Session() *auth.Manager {
	return a.session
}

// Restore loads the persisted session once; later calls are no-ops.
func (a *App) Restore(ctx context.Context) error {
	if a.session.State() != auth.StateUnknown {
		return nil
	}
	return a.session.Restore(ctx)
}

// Login restores a persisted session or runs the sign-in flow. With a
// non-empty redirectURL the code carried by it is exchanged instead.
func (a *App) Login(ctx context.Context, redirectURL string) (*core.User, error) {
	// A failed restore leaves the session signed out; signing in still works.
	if err := a.Restore(ctx); err != nil {
		a.log.Warn().Err(err).Msg("restore failed, signing in anew")
	}
	if a.session.State() == auth.StateSignedIn {
		return a.session.User(), nil
	}

	if redirectURL != "" {
		if _, err := a.session.CompleteRedirect(ctx, redirectURL); err != nil {
			return nil, err
		}
	} else if err := a.session.SignIn(ctx); err != nil {
		return nil, err
	}

	if a.session.State() != auth.StateSignedIn {
		return nil, ErrNotSignedIn
	}
	return a.session.User(), nil
}

// Logout clears the persisted session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Restore(ctx); err != nil {
		return err
	}
	return a.session.SignOut(ctx)
}

// WhoAmI returns the restored user or ErrNotSignedIn.
func (a *App) WhoAmI(ctx context.Context) (*core.User, error) {
	if err := a.Restore(ctx); err != nil {
		return nil, err
	}
	user := a.session.User()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return user, nil
}

// SignInURL returns the link a browser user follows to sign in.
func (a *App) SignInURL() string {
	return a.session.SignInURL()
}

// NewFeed builds a feed with its pending queue from configuration.
func (a *App) NewFeed() (*feed.Feed, *feed.Queue) {
	queue := feed.NewQueue(a.cfg.QueueCapacity)
	f := feed.New(a.api, queue, feed.Options{
		WindowSize:    a.cfg.WindowSize,
		DrainInterval: a.cfg.DrainInterval,
	}, a.log)
	return f, queue
}

// RunFeed restores the session, then runs the feed and the push
// subscriber until ctx is cancelled or either of them fails.
func (a *App) RunFeed(ctx context.Context, f *feed.Feed, queue *feed.Queue) error {
	if err := a.Restore(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subscriber := push.NewSubscriber(a.cfg.PushURL, a.api, queue, a.log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- f.Run(ctx)
	}()
	go func() {
		errCh <- subscriber.Run(ctx)
	}()

	err := <-errCh
	cancel() // stop the other goroutine
	<-errCh

	if errors.Is(err, context.Canceled) {
		return nil
	}
	if dropped := queue.Dropped(); dropped > 0 {
		a.log.Warn().Uint64("dropped", dropped).Msg("pending queue overflowed")
	}
	return err
}

// Close releases the session store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
		return err
	}
	a.log.Debug().Msg("store closed")
	return nil
}
