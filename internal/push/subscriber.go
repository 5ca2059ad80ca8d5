package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

// Sink receives messages from the push channel.
type Sink interface {
	Push(msg core.Message) bool
}

// TokenSource provides the bearer token sent on dial.
type TokenSource interface {
	Token() string
}

// Subscriber listens for new_message events on the backend websocket.
type Subscriber struct {
	url    string
	tokens TokenSource
	sink   Sink
	log    *zerolog.Logger
}

// NewSubscriber creates a subscriber for the push channel at url.
// tokens may be nil for an anonymous subscription.
func NewSubscriber(url string, tokens TokenSource, sink Sink, logger *zerolog.Logger) *Subscriber {
	return &Subscriber{url: url, tokens: tokens, sink: sink, log: logger}
}

// Run dials the push channel and forwards messages until ctx is cancelled
// or the connection fails. It does not reconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := &websocket.DialOptions{}
	if s.tokens != nil {
		if token := s.tokens.Token(); token != "" {
			opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
		}
	}

	conn, _, err := websocket.Dial(ctx, s.url, opts)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s.log.Info().Str("url", s.url).Msg("push channel connected")

	err = s.readLoop(ctx, conn)
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	return err
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.handle(outbound)
	}
}

func (s *Subscriber) handle(outbound proto.Outbound) {
	if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
		s.log.Warn().Str("code", outbound.Error.Code).Str("msg", outbound.Error.Msg).Msg("push channel error")
		return
	}

	switch outbound.Event {
	case proto.EventNewMessage:
		var m proto.Message
		if err := json.Unmarshal(outbound.Data, &m); err != nil {
			s.log.Warn().Err(err).Msg("unmarshal new_message")
			return
		}
		if !s.sink.Push(m.ToCore()) {
			s.log.Warn().Str("message_id", m.ID).Msg("pending queue full, dropped oldest message")
		}
	default:
		s.log.Debug().Str("event", outbound.Event).Msg("ignoring push event")
	}
}
