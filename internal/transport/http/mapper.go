package http

import (
	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

func outboundFromEvent(event *core.Event) (proto.Outbound, error) {
	switch event.Kind {
	case core.EventNewMessage:
		return proto.NewMessageEvent(event.Message)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}, nil
	}
}
