package chathub

import (
	"log"

	"chatrelay/backend/internal/models"
)

// HandleEvent validates an inbound client event and routes it to the
// right component. It is called concurrently from each session's read
// pump; the registry, room table and typing tracker serialize internally,
// so events for the same room never interleave destructively while
// different rooms proceed in parallel.
//
// Protocol errors are never fatal: malformed or unrecognized events are
// dropped with a diagnostic and the connection lives on.
func (m *ManagerService) HandleEvent(c Client, ev models.Event) {
	switch ev.Name {
	case models.EventSetup:
		m.push(c, models.Event{Name: models.EventConnected, UserID: c.GetUserID()})

	case models.EventJoinRoom:
		if ev.RoomID == "" {
			log.Printf("dropping join_room without room id from session %s", c.GetSessionID())
			return
		}
		m.Rooms.Join(ev.RoomID, c)
		c.SetViewingRoomID(ev.RoomID)
		c.ClearNotifications(ev.RoomID)

	case models.EventLeaveRoom:
		if ev.RoomID == "" {
			log.Printf("dropping leave_room without room id from session %s", c.GetSessionID())
			return
		}
		m.Rooms.Leave(ev.RoomID, c)
		if c.GetViewingRoomID() == ev.RoomID {
			c.SetViewingRoomID("")
		}
		if !m.Rooms.HasUser(ev.RoomID, c.GetUserID()) {
			m.Typing.Stop(ev.RoomID, c.GetUserID())
		}

	case models.EventTyping:
		// A typing event racing ahead of its join is expected on fast
		// room switches; ignore rather than error.
		if ev.RoomID == "" || !m.Rooms.IsMember(ev.RoomID, c) {
			return
		}
		m.Typing.Typing(ev.RoomID, c.GetUserID())

	case models.EventStopTyping:
		if ev.RoomID == "" || !m.Rooms.IsMember(ev.RoomID, c) {
			return
		}
		m.Typing.Stop(ev.RoomID, c.GetUserID())

	case models.EventMessageSent:
		msg := ev.Message
		if msg == nil || msg.ID == "" || msg.RoomID == "" {
			log.Printf("dropping message_sent with missing id/room from session %s", c.GetSessionID())
			return
		}
		if msg.SenderID == "" {
			msg.SenderID = c.GetUserID()
		}
		m.publish(*msg)

	default:
		log.Printf("dropping unrecognized event %q from session %s", ev.Name, c.GetSessionID())
	}
}

// publish hands a message event to the broker, or straight to the local
// dispatch queue in single-instance mode. A delivery that cannot be
// queued is dropped; catch-up on reconnect covers the gap.
func (m *ManagerService) publish(msg models.ChatMessage) {
	if m.Bus == nil {
		select {
		case m.PubSubCh <- msg:
		default:
			log.Printf("WARN: dispatch queue full, dropping message %s for room %s", msg.ID, msg.RoomID)
		}
		return
	}
	if err := m.Bus.PublishEvent(msg.RoomID, msg); err != nil {
		log.Printf("ERROR: failed to publish message %s for room %s: %v", msg.ID, msg.RoomID, err)
	}
}
