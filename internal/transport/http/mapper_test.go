package http

import (
	"encoding/json"
	"testing"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

func TestOutboundFromEvent(t *testing.T) {
	out, err := outboundFromEvent(&core.Event{Kind: core.EventNewMessage, Message: core.Message{ID: "m1", Text: "hi"}})
	if err != nil {
		t.Fatalf("map new message: %v", err)
	}
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventNewMessage {
		t.Fatalf("unexpected outbound %+v", out)
	}

	var m proto.Message
	if err := json.Unmarshal(out.Data, &m); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if m.ID != "m1" || m.Text != "hi" {
		t.Fatalf("unexpected message %+v", m)
	}
}
