package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const callbackPath = "/callback"

// LoopbackAuthorizer receives the provider redirect on a local HTTP listener.
type LoopbackAuthorizer struct {
	addr string
	open func(url string) error
	log  *zerolog.Logger

	mu    sync.Mutex
	bound string
}

// NewLoopbackAuthorizer listens on addr while a flow is running. open is
// called with the authorize URL and is expected to show it to the user.
func NewLoopbackAuthorizer(addr string, open func(url string) error, logger *zerolog.Logger) *LoopbackAuthorizer {
	return &LoopbackAuthorizer{addr: addr, open: open, log: logger}
}

// PrintOpener writes the authorize URL to w.
func PrintOpener(w io.Writer) func(string) error {
	return func(url string) error {
		_, err := fmt.Fprintf(w, "Open this URL in your browser to sign in:\n\n  %s\n\n", url)
		return err
	}
}

// RedirectURL is the callback URL to register with the provider.
func (a *LoopbackAuthorizer) RedirectURL() string {
	return "http://" + a.addr + callbackPath
}

// BoundAddr returns the address of the running listener, empty when idle.
func (a *LoopbackAuthorizer) BoundAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bound
}

// Authorize opens the authorize URL and waits for the redirect or ctx.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return AuthorizationResult{}, fmt.Errorf("listen for callback: %w", err)
	}

	results := make(chan AuthorizationResult, 1)
	server := &stdhttp.Server{
		Handler:           a.router(req.State, results),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	a.mu.Lock()
	a.bound = ln.Addr().String()
	a.mu.Unlock()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("failed to stop callback listener")
		}
		a.mu.Lock()
		a.bound = ""
		a.mu.Unlock()
	}()

	if a.open != nil {
		if err := a.open(req.URL); err != nil {
			return AuthorizationResult{}, fmt.Errorf("open authorize url: %w", err)
		}
	}

	select {
	case res := <-results:
		return res, nil
	case err, ok := <-serveErr:
		if ok && err != nil {
			return AuthorizationResult{}, fmt.Errorf("callback listener: %w", err)
		}
		return AuthorizationResult{Type: ResultDismiss}, nil
	case <-ctx.Done():
		a.log.Debug().Err(ctx.Err()).Msg("authorization flow dismissed")
		return AuthorizationResult{Type: ResultDismiss}, nil
	}
}

func (a *LoopbackAuthorizer) router(state string, results chan<- AuthorizationResult) stdhttp.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(callbackPath, func(c *gin.Context) {
		res := callbackResult(state, c.Query("state"), c.Query("code"), c.Query("error"))

		select {
		case results <- res:
		default:
			// A result was already delivered.
		}

		if res.Type == ResultSuccess {
			c.String(stdhttp.StatusOK, "Signed in. You can close this window.")
			return
		}
		c.String(stdhttp.StatusOK, "Sign-in was not completed. You can close this window.")
	})
	return r
}

func callbackResult(wantState, gotState, code, errParam string) AuthorizationResult {
	switch {
	case errParam != "":
		return AuthorizationResult{Type: ResultError, Error: errParam}
	case wantState != "" && gotState != wantState:
		return AuthorizationResult{Type: ResultError, Error: "state_mismatch"}
	case code == "":
		return AuthorizationResult{Type: ResultError, Error: "missing_code"}
	default:
		return AuthorizationResult{Type: ResultSuccess, Code: code}
	}
}
