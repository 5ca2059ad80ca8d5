package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
	"github.com/vovakirdan/heatchat/internal/push"
)

type chanSink chan core.Message

func (s chanSink) Push(msg core.Message) bool {
	s <- msg
	return true
}

func TestWSBroadcastsNewMessage(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, b.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, b.hub, 1)

	c, user := b.signedIn(t, "octocat")
	posted, err := c.PostMessage(ctx, "hello")
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	var frame proto.Outbound
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.Type != proto.OutboundTypeEvent || frame.Event != proto.EventNewMessage {
		t.Fatalf("unexpected frame %+v", frame)
	}
	var got proto.Message
	if err := json.Unmarshal(frame.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.ID != posted.ID || got.Text != "hello" || got.User.Login != "octocat" {
		t.Fatalf("unexpected message %+v", got)
	}
	if posted.User != user {
		t.Fatalf("expected author %+v, got %+v", user, posted.User)
	}
}

func TestWSRejectsInvalidToken(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, b.wsURL(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer nope"}},
	})
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestWSAcceptsBearerToken(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.signedIn(t, "octocat")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, b.wsURL(), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.Token()}},
	})
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, b.hub, 1)

	if _, err := c.PostMessage(ctx, "authed"); err != nil {
		t.Fatalf("post: %v", err)
	}
	var frame proto.Outbound
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.Event != proto.EventNewMessage {
		t.Fatalf("unexpected frame %+v", frame)
	}
}

func TestWSUnregistersOnClose(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, b.wsURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, b.hub, 1)

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitForClients(t, b.hub, 0)
}

func TestPushSubscriberEndToEnd(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.signedIn(t, "octocat")
	logger := zerolog.Nop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink := make(chanSink, 1)
	sub := push.NewSubscriber(b.wsURL(), c, sink, &logger)
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	waitForClients(t, b.hub, 1)

	posted, err := c.PostMessage(ctx, "pushed")
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	select {
	case got := <-sink:
		if got.ID != posted.ID || got.Text != "pushed" {
			t.Fatalf("expected %+v, got %+v", posted, got)
		}
	case <-ctx.Done():
		t.Fatalf("timeout waiting for pushed message")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber did not stop after cancel")
	}
}
