package handler

import (
	"errors"
	"net/http"
	"strconv"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetRoomHistory serves the catch-up read: the recent messages of a room
// in creation order. Clients call it after connect/rejoin to fill the
// gap the realtime channel may have missed.
func (h *Handler) GetRoomHistory(c *gin.Context) {
	roomID := c.Param("id")

	if _, err := h.Storage.GetRoomByID(roomID); err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}

	limit := config.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	history, err := h.Storage.GetChatHistory(roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	messages := make([]models.ChatMessage, 0, len(history))
	for i := range history {
		messages = append(messages, history[i].ToChatMessage())
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": messages})
}
