package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/heatchat/internal/api"
	applog "github.com/vovakirdan/heatchat/internal/log"
	"github.com/vovakirdan/heatchat/internal/proto"
)

var logger = applog.New("info")

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
}

// run signs in against a dev backend, subscribes to the push channel,
// posts a message and waits for it to come back as new_message.
func run() error {
	apiURL := flag.String("api", "http://localhost:4000/", "backend base URL")
	addr := flag.String("addr", "ws://localhost:4000/ws", "push channel address")
	code := flag.String("code", "tester", "authorization code to exchange")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := api.NewClient(*apiURL, *timeout)
	token, user, err := client.Authenticate(ctx, *code)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	client.SetToken(token)
	logger.Info().Str("login", user.Login).Msg("authenticated")

	conn, _, err := websocket.Dial(ctx, *addr, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	posted, err := client.PostMessage(ctx, *text)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if outbound.Error != nil {
			logger.Warn().Str("code", outbound.Error.Code).Str("msg", outbound.Error.Msg).Msg("push error")
			continue
		}
		if outbound.Event != proto.EventNewMessage {
			continue
		}

		var m proto.Message
		if err := json.Unmarshal(outbound.Data, &m); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		logger.Info().Str("id", m.ID).Str("user", m.User.Login).Str("text", m.Text).Msg("received new_message")
		if m.ID == posted.ID {
			return nil
		}
	}
}
