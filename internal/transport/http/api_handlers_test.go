package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/vovakirdan/heatchat/internal/api"
	"github.com/vovakirdan/heatchat/internal/auth"
	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

func TestHealth(t *testing.T) {
	b := newTestBackend(t)

	resp, err := http.Get(b.server.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUnknownRouteReturnsNotFoundCode(t *testing.T) {
	b := newTestBackend(t)

	resp, err := http.Get(b.server.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body proto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || body.Code != core.ErrCodeNotFound {
		t.Fatalf("expected 404 %s, got %d %+v", core.ErrCodeNotFound, resp.StatusCode, body)
	}
}

func TestAuthenticateIssuesToken(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	token, user, err := b.client().Authenticate(ctx, "octocat")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Login != "octocat" || user.ID == "" {
		t.Fatalf("unexpected user %+v", user)
	}

	claims, err := auth.ValidateToken(b.jwtConfig, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Subject != user.ID || claims.Login != "octocat" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	// Same code, same user.
	_, again, err := b.client().Authenticate(ctx, "octocat")
	if err != nil {
		t.Fatalf("authenticate again: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected stable user id, got %q and %q", user.ID, again.ID)
	}
}

func TestAuthenticateRejectsEmptyCode(t *testing.T) {
	b := newTestBackend(t)

	_, _, err := b.client().Authenticate(context.Background(), "  ")
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusBadRequest || statusErr.Code != core.ErrCodeInvalidCode {
		t.Fatalf("expected 400 %s, got %d %s", core.ErrCodeInvalidCode, statusErr.Status, statusErr.Code)
	}
}

func TestProfile(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if _, err := b.client().Profile(ctx); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without token, got %v", err)
	}

	bad := b.client()
	bad.SetToken("not-a-jwt")
	if _, err := bad.Profile(ctx); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}

	c, user := b.signedIn(t, "hubot")
	got, err := c.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got != user {
		t.Fatalf("expected %+v, got %+v", user, got)
	}
}

func TestProfileSurvivesRestart(t *testing.T) {
	b := newTestBackend(t)
	restarted := newTestBackend(t)

	c, original := b.signedIn(t, "mona")

	// The restarted backend never saw this user; it shares the secret.
	other := restarted.client()
	other.SetToken(c.Token())
	got, err := other.Profile(context.Background())
	if err != nil {
		t.Fatalf("profile on restarted backend: %v", err)
	}
	if got.ID != original.ID {
		t.Fatalf("expected %q, got %q", original.ID, got.ID)
	}
}

func TestMessagesLastThreeNewestFirst(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	c, user := b.signedIn(t, "octocat")

	msgs, err := c.LastMessages(ctx)
	if err != nil {
		t.Fatalf("last messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty feed, got %d", len(msgs))
	}

	for _, text := range []string{"one", "two", "three", "four"} {
		m, err := c.PostMessage(ctx, text)
		if err != nil {
			t.Fatalf("post %q: %v", text, err)
		}
		if m.User != user {
			t.Fatalf("expected author %+v, got %+v", user, m.User)
		}
	}

	msgs, err = c.LastMessages(ctx)
	if err != nil {
		t.Fatalf("last messages: %v", err)
	}
	got := make([]string, 0, len(msgs))
	for _, m := range msgs {
		got = append(got, m.Text)
	}
	want := []string{"four", "three", "two"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMessagesArePublic(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.signedIn(t, "octocat")
	if _, err := c.PostMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("post: %v", err)
	}

	msgs, err := b.client().LastMessages(context.Background())
	if err != nil {
		t.Fatalf("anonymous last messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if _, err := b.client().PostMessage(ctx, "hi"); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	c, _ := b.signedIn(t, "octocat")
	_, err := c.PostMessage(ctx, "   ")
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadRequest || statusErr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected 400 %s, got %v", core.ErrCodeBadRequest, err)
	}
}
