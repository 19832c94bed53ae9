package chathub

import (
	"encoding/json"
	"log"

	"chatrelay/backend/internal/models"
)

// startPubSubListener subscribes to the broker's room channels and
// funnels incoming message events into the hub's dispatch queue. Redis
// preserves per-channel publish order and the single listener goroutine
// preserves it onward, which is where the per-room FIFO guarantee comes
// from.
func (m *ManagerService) startPubSubListener() {
	if m.Bus == nil {
		return
	}
	pubsub := m.Bus.SubscribeEvents()
	if pubsub == nil {
		return
	}

	go func() {
		defer pubsub.Close()

		for redisMsg := range pubsub.Channel() {
			var msg models.ChatMessage
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				log.Printf("ERROR: dropping malformed pubsub payload: %v", err)
				continue
			}
			m.PubSubCh <- msg
		}
	}()
}
