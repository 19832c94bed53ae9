package chathub

import (
	"log"

	"chatrelay/backend/internal/models"
)

// Dispatcher fans a persisted message out to the sessions joined to its
// room. The hub drains dispatches through a single goroutine, so for any
// one room deliveries keep the order messages arrived in.
type Dispatcher struct {
	rooms *RoomTable
}

func NewDispatcher(rooms *RoomTable) *Dispatcher {
	return &Dispatcher{rooms: rooms}
}

// Dispatch delivers msg to every current member of its room except the
// sender's own sessions. A recipient viewing a different room gets a
// notification event instead of a live append, deduplicated by message
// id. Sends never block: a session with a full buffer is skipped and the
// rest of the fan-out proceeds.
func (d *Dispatcher) Dispatch(msg models.ChatMessage) {
	members := d.rooms.Members(msg.RoomID)

	for _, c := range members {
		if c.GetUserID() == msg.SenderID {
			continue
		}

		m := msg
		ev := models.Event{Name: models.EventMessageReceived, RoomID: msg.RoomID, Message: &m}
		if c.GetViewingRoomID() != msg.RoomID {
			if !c.TrackNotification(msg.RoomID, msg.ID) {
				continue // already notified about this message
			}
			ev.Name = models.EventNotification
		}

		select {
		case c.GetSendChannel() <- ev:
		default:
			log.Printf("WARN: send buffer full, dropping %s for session %s", ev.Name, c.GetSessionID())
		}
	}
}
