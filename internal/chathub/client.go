package chathub

import "chatrelay/backend/internal/models"

// Client is the interface for any type of connection (e.g., WebSocket,
// Telegram). It abstracts the underlying transport, allowing the hub to
// manage different client types uniformly. One Client is one session: a
// single live connection bound to a single user identity.
type Client interface {
	// GetSessionID returns the opaque handle for this connection.
	GetSessionID() string
	// GetUserID returns the identifier of the user who owns the session.
	GetUserID() string

	// GetViewingRoomID returns the room the client reports as currently
	// open in its UI, or "" when none. Drives the message-vs-notification
	// classification during fan-out.
	GetViewingRoomID() string
	// SetViewingRoomID records the client-reported viewing state.
	SetViewingRoomID(string)

	// TrackNotification records that a notification for the given message
	// was surfaced to this session. It reports false if the message id was
	// already tracked for the room, so retried deliveries collapse.
	TrackNotification(roomID, messageID string) bool
	// ClearNotifications drops the tracked notification ids for a room,
	// called when the session opens that room.
	ClearNotifications(roomID string)

	// GetSendChannel returns the channel the hub pushes outbound events
	// into. Sends are non-blocking; a full buffer means the delivery is
	// dropped for this session.
	GetSendChannel() chan<- models.Event

	// Run starts the client's pumps.
	Run()
	// Close shuts the client's pumps down. Implementations must leave
	// the send channel open and usable: fan-out may race with teardown
	// and a send after Close is dropped, never a panic.
	Close()
}
