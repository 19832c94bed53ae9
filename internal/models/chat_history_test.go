package models_test

import (
	"testing"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestChatHistoryToChatMessage(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	row := models.ChatHistory{
		Model:     gorm.Model{ID: 7, CreatedAt: created},
		MessageID: "m1",
		RoomID:    "room1",
		SenderID:  "user_A",
		Content:   "hello",
	}

	msg := row.ToChatMessage()

	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "room1", msg.RoomID)
	assert.Equal(t, "user_A", msg.SenderID)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, created, msg.CreatedAt)
}
