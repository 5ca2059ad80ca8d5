package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/api"
	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/core"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testBackend struct {
	hub       *core.Hub
	jwtConfig *auth.JWTConfig
	server    *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub()
	jwtConfig := &auth.JWTConfig{
		Secret: []byte("test-secret"),
		Issuer: "heatchat-test",
		TTL:    time.Hour,
	}

	server := httptest.NewServer(NewRouter(hub, jwtConfig, &logger))
	t.Cleanup(server.Close)

	return &testBackend{hub: hub, jwtConfig: jwtConfig, server: server}
}

func (b *testBackend) client() *api.Client {
	return api.NewClient(b.server.URL+"/", 5*time.Second)
}

// signedIn authenticates with code and returns a client carrying the token.
func (b *testBackend) signedIn(t *testing.T, code string) (*api.Client, core.User) {
	t.Helper()

	c := b.client()
	token, user, err := c.Authenticate(context.Background(), code)
	if err != nil {
		t.Fatalf("authenticate %q: %v", code, err)
	}
	c.SetToken(token)
	return c, user
}

func (b *testBackend) wsURL() string {
	return "ws" + b.server.URL[len("http"):] + "/ws"
}

func waitForClients(t *testing.T, hub *core.Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d ws clients, have %d", n, hub.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
