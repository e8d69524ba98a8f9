package pubsub

import (
	"testing"
	"time"

	"github.com/jwoo-kim/team-draft/internal/logger"
)

func init() {
	// Initialize logger for tests
	logger.Init()
}

func TestPubSubFanOut(t *testing.T) {
	ps := New()

	ch1 := ps.Subscribe()
	ch2 := ps.Subscribe()

	ps.Publish(Event{Type: "draft:pick", Payload: map[string]interface{}{"participantId": "p1"}})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			if event.Type != "draft:pick" {
				t.Errorf("subscriber %d got event %q, want draft:pick", i, event.Type)
			}
			if event.Payload["participantId"] != "p1" {
				t.Errorf("subscriber %d payload = %v", i, event.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestPubSubUnsubscribe(t *testing.T) {
	ps := New()

	ch := ps.Subscribe()
	ps.Unsubscribe(ch)

	// The channel closes on unsubscribe
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after Unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}

	// Publishing afterwards must not panic
	ps.Publish(Event{Type: "draft:reset"})
}

func TestPubSubSlowSubscriberDropped(t *testing.T) {
	ps := New()
	ch := ps.Subscribe()

	// Fill the buffered channel past capacity; publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			ps.Publish(Event{Type: "draft:next"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if len(ch) == 0 {
		t.Error("subscriber should still have buffered events")
	}
}

func TestUpstreamBridge(t *testing.T) {
	mock := NewMockNATSPubSub("draft.events")
	ps := NewWithUpstream(mock)

	local := ps.Subscribe()

	ps.Publish(Event{Type: "draft:start"})

	// The event goes to the upstream, then bridges back to local subscribers
	select {
	case event := <-local:
		if event.Type != "draft:start" {
			t.Errorf("bridged event = %q, want draft:start", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event never bridged back from upstream")
	}

	if mock.MessageCount() != 1 {
		t.Errorf("upstream retained %d messages, want 1", mock.MessageCount())
	}
}

func TestMockNATSRetainsMessages(t *testing.T) {
	mock := NewMockNATSPubSub("draft.events")

	sub := mock.Subscribe()
	defer mock.Unsubscribe(sub)

	for _, typ := range []string{"draft:ingest", "draft:start", "draft:pick"} {
		mock.Publish(Event{Type: typ})
	}

	msgs := mock.Messages()
	if len(msgs) != 3 {
		t.Fatalf("retained %d messages, want 3", len(msgs))
	}
	if msgs[1].Type != "draft:start" {
		t.Errorf("messages[1] = %q, want draft:start", msgs[1].Type)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-sub:
		case <-time.After(time.Second):
			t.Fatalf("subscriber missed event %d", i)
		}
	}
}
