package events

import "time"

// EventType represents the type of event broadcast to dashboard clients.
type EventType string

const (
	// EventTypeDecision is emitted for every allow/block decision.
	EventTypeDecision EventType = "decision"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event is the envelope sent to connected clients.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// DecisionEvent describes an allow/block decision. It carries the field
// name and a fixed reason string only - never the checked content and
// never a matched value.
type DecisionEvent struct {
	Field   string `json:"field"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// SystemStatusEvent represents periodic status information.
type SystemStatusEvent struct {
	Status            string `json:"status"`
	Uptime            string `json:"uptime"`
	ProtectionEnabled bool   `json:"protection_enabled"`
	PostsBlocked      int64  `json:"posts_blocked"`
	PostsAllowed      int64  `json:"posts_allowed"`
	ConnectedClients  int    `json:"connected_clients"`
}

// ConnectionEvent represents client connect/disconnect events.
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected" or "disconnected"
	ClientID string `json:"client_id"`
}

// ClientMessage represents messages sent from clients to the hub.
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest narrows which event types a client receives.
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}
