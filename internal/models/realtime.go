package models

import "time"

// Inbound event names accepted by the gateway.
const (
	EventSetup       = "setup"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventMessageSent = "message_sent"
)

// Outbound event names delivered to clients.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message_received"
	EventNotification    = "notification"
)

// Event is the wire envelope for both directions of the realtime channel.
// Presence events carry only RoomID (plus UserID on the way out); message
// events carry the full ChatMessage payload.
type Event struct {
	Name    string       `json:"event"`
	RoomID  string       `json:"room_id,omitempty"`
	UserID  string       `json:"user_id,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
}

// ChatMessage is an already-persisted message being routed by the hub.
// The ID is assigned by the persistence layer before the message ever
// reaches the realtime channel; the hub never mutates the payload.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
