package models

import "gorm.io/gorm"

// ChatHistory is a persisted chat message row, read back for catch-up
// after reconnect. The embedded gorm.Model provides the internal primary
// key and timestamps; MessageID is the identifier the realtime channel
// routes by.
type ChatHistory struct {
	gorm.Model

	// MessageID is the externally assigned message identifier.
	MessageID string `gorm:"type:text;not null;uniqueIndex"`
	// RoomID is the room the message was sent to.
	RoomID string `gorm:"type:uuid;not null;index:idx_room_msg"`
	// SenderID is the id of the sending user.
	SenderID string `gorm:"type:text;not null;index:idx_room_msg"`
	// Content is the message body.
	Content string `gorm:"type:text;not null"`
}

// ToChatMessage converts a stored row back into the wire payload.
func (h *ChatHistory) ToChatMessage() ChatMessage {
	return ChatMessage{
		ID:        h.MessageID,
		RoomID:    h.RoomID,
		SenderID:  h.SenderID,
		Content:   h.Content,
		CreatedAt: h.CreatedAt,
	}
}
