package pubsub

import (
	"testing"
	"time"
)

func TestNewEmbeddedNATSPubSub(t *testing.T) {
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	defer ps.Close()

	if ps.server == nil {
		t.Error("server should not be nil")
	}
	if ps.nc == nil {
		t.Error("NATS connection should not be nil")
	}
	if ps.js == nil {
		t.Error("JetStream context should not be nil")
	}
}

func TestEmbeddedNATSServerURL(t *testing.T) {
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	defer ps.Close()

	if ps.ServerURL() == "" {
		t.Error("server URL should not be empty")
	}
}

func TestEmbeddedNATSSubscribeUnsubscribe(t *testing.T) {
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	defer ps.Close()

	ch := ps.Subscribe()
	if ps.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", ps.SubscriberCount())
	}

	ps.Unsubscribe(ch)
	if ps.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", ps.SubscriberCount())
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after unsubscribe")
		}
	default:
		t.Error("channel should be closed and readable")
	}
}

func TestEmbeddedNATSPublishAndReceive(t *testing.T) {
	ps, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	defer ps.Close()

	// Give the subscription goroutine time to start
	time.Sleep(100 * time.Millisecond)

	ch := ps.Subscribe()

	ps.Publish(Event{
		Type:    "draft:pick",
		Payload: map[string]interface{}{"participantId": "p1"},
	})

	select {
	case received := <-ch:
		if received.Type != "draft:pick" {
			t.Errorf("expected draft:pick, got %s", received.Type)
		}
		if received.Payload["participantId"] != "p1" {
			t.Error("payload mismatch")
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for event")
	}
}

func TestEmbeddedNATSBridgedThroughPubSub(t *testing.T) {
	embedded, err := NewEmbeddedNATSPubSub(DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to create embedded NATS: %v", err)
	}
	defer embedded.Close()

	time.Sleep(100 * time.Millisecond)

	ps := NewWithUpstream(embedded)
	local := ps.Subscribe()
	time.Sleep(100 * time.Millisecond)

	ps.Publish(Event{Type: "draft:next"})

	select {
	case received := <-local:
		if received.Type != "draft:next" {
			t.Errorf("expected draft:next, got %s", received.Type)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for bridged event")
	}
}
