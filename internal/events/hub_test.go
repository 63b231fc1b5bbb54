package events

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"go.uber.org/zap"
)

func testHubConfig() config.WebSocketConfig {
	cfg := config.GetDefaults().WebSocket
	return cfg
}

func TestShouldBroadcastEvent(t *testing.T) {
	t.Run("enabled types broadcast", func(t *testing.T) {
		h := NewHub(testHubConfig(), zap.NewNop())

		for _, eventType := range []EventType{EventTypeDecision, EventTypeSystemStatus, EventTypeConnection} {
			if !h.shouldBroadcastEvent(eventType) {
				t.Errorf("%s not broadcast despite config", eventType)
			}
		}
	})

	t.Run("disabled types are dropped", func(t *testing.T) {
		cfg := testHubConfig()
		cfg.Events.BroadcastDecisions = false
		h := NewHub(cfg, zap.NewNop())

		if h.shouldBroadcastEvent(EventTypeDecision) {
			t.Error("decision broadcast despite config")
		}
		if h.shouldBroadcastEvent(EventType("unknown")) {
			t.Error("unknown event type broadcast")
		}
	})
}

func TestBroadcastEventQueues(t *testing.T) {
	h := NewHub(testHubConfig(), zap.NewNop())

	event := Event{
		Type:      EventTypeDecision,
		Timestamp: time.Now(),
		Data:      DecisionEvent{Field: "title", Allowed: false, Reason: "PII detected in title"},
	}
	h.BroadcastEvent(event)

	select {
	case got := <-h.broadcast:
		if got.Type != EventTypeDecision {
			t.Errorf("event type = %s", got.Type)
		}
	default:
		t.Fatal("event not queued")
	}
}

func TestShouldSendToClient(t *testing.T) {
	h := NewHub(testHubConfig(), zap.NewNop())
	event := Event{Type: EventTypeDecision}

	t.Run("no subscription receives everything", func(t *testing.T) {
		client := &Client{ID: "c1"}
		if !h.shouldSendToClient(client, event) {
			t.Error("unfiltered client skipped")
		}
	})

	t.Run("subscription filters by type", func(t *testing.T) {
		client := &Client{
			ID:           "c2",
			Subscription: &SubscriptionRequest{Events: []EventType{EventTypeSystemStatus}},
		}
		if h.shouldSendToClient(client, event) {
			t.Error("filtered client received unsubscribed event")
		}

		client.Subscription.Events = append(client.Subscription.Events, EventTypeDecision)
		if !h.shouldSendToClient(client, event) {
			t.Error("subscribed client skipped")
		}
	})
}

func TestStop(t *testing.T) {
	t.Run("terminates run", func(t *testing.T) {
		h := NewHub(testHubConfig(), zap.NewNop())

		finished := make(chan struct{})
		go func() {
			h.Run()
			close(finished)
		}()

		h.Stop()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after Stop")
		}
	})

	t.Run("disconnects clients and is idempotent", func(t *testing.T) {
		h := NewHub(testHubConfig(), zap.NewNop())
		client := &Client{ID: "c1", Send: make(chan Event, 1)}
		h.clients[client] = true
		h.stats.ActiveConnections = 1

		finished := make(chan struct{})
		go func() {
			h.Run()
			close(finished)
		}()

		h.Stop()
		h.Stop()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after Stop")
		}

		if _, ok := <-client.Send; ok {
			t.Error("client send channel not closed")
		}
		if got := h.GetStats().ActiveConnections; got != 0 {
			t.Errorf("active connections = %d after Stop", got)
		}
	})
}

func TestCheckOrigin(t *testing.T) {
	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := NewHub(testHubConfig(), zap.NewNop())

		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Origin", "http://example.com")
		if !h.checkOrigin(r) {
			t.Error("wildcard origin rejected")
		}
	})

	t.Run("explicit origin list", func(t *testing.T) {
		cfg := testHubConfig()
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
		h := NewHub(cfg, zap.NewNop())

		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		if !h.checkOrigin(r) {
			t.Error("listed origin rejected")
		}

		r.Header.Set("Origin", "http://evil.example")
		if h.checkOrigin(r) {
			t.Error("unlisted origin accepted")
		}
	})
}

func TestGetStats(t *testing.T) {
	h := NewHub(testHubConfig(), zap.NewNop())

	stats := h.GetStats()
	if stats.ActiveConnections != 0 || stats.TotalConnections != 0 {
		t.Errorf("fresh hub stats = %+v", stats)
	}
}
