package core

import "testing"

func TestHubPublishReachesAllClients(t *testing.T) {
	hub := NewHub()

	alice := NewClient("a", "1")
	bob := NewClient("b", "2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	if dropped := hub.Publish(msg("m1")); dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		if ev.Message.ID != "m1" {
			t.Fatalf("unexpected message for %s: %+v", c.ID, ev.Message)
		}
	}
}

func TestHubUnregisteredClientGetsNothing(t *testing.T) {
	hub := NewHub()

	alice := NewClient("a", "1")
	hub.RegisterClient(alice)
	hub.UnregisterClient(alice)

	hub.Publish(msg("m1"))

	select {
	case ev := <-alice.Events:
		t.Fatalf("unexpected event after unregister: %+v", ev)
	default:
	}
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients, got %d", hub.Clients())
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	hub := NewHub()

	slow := NewClient("s", "1")
	hub.RegisterClient(slow)

	for i := 0; i < cap(slow.Events); i++ {
		hub.Publish(msg("fill"))
	}
	if dropped := hub.Publish(msg("overflow")); dropped != 1 {
		t.Fatalf("expected 1 drop, got %d", dropped)
	}
}
