package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/config"
	"github.com/vovakirdan/heatchat/internal/core"
	transporthttp "github.com/vovakirdan/heatchat/internal/transport/http"
)

const (
	devTokenTTL        = 24 * time.Hour
	devShutdownTimeout = 5 * time.Second
)

// DevServer runs the development backend.
type DevServer struct {
	server *stdhttp.Server
	hub    *core.Hub
	log    *zerolog.Logger
}

// NewDevServer constructs the development backend from configuration.
func NewDevServer(cfg config.Config, logger *zerolog.Logger) *DevServer {
	jwtConfig := &auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: "heatchat-dev",
		TTL:    devTokenTTL,
	}

	hub := core.NewHub()
	return &DevServer{
		server: transporthttp.NewServer(hub, jwtConfig, cfg, logger),
		hub:    hub,
		log:    logger,
	}
}

// Addr returns the configured listen address.
func (d *DevServer) Addr() string {
	return d.server.Addr
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (d *DevServer) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), devShutdownTimeout)
		defer cancel()

		d.log.Info().Int("clients", d.hub.Clients()).Msg("shutting down http server")
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
