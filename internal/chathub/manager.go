package chathub

import (
	"log"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventBus is the slice of the storage layer the hub depends on: the
// cross-instance publish/subscribe path for message events.
type EventBus interface {
	PublishEvent(roomID string, msg models.ChatMessage) error
	SubscribeEvents() *redis.PubSub
}

// ManagerService is the hub. It owns the session registry, the live room
// membership table, the typing tracker and the fan-out dispatcher, and
// runs the loop that serializes registration, teardown and message
// dispatch.
type ManagerService struct {
	Registry   *SessionRegistry
	Rooms      *RoomTable
	Typing     *TypingTracker
	Dispatcher *Dispatcher

	RegisterCh   chan Client
	UnregisterCh chan Client
	// PubSubCh carries message events coming back from the broker (or
	// published locally when no broker is configured).
	PubSubCh chan models.ChatMessage

	Bus EventBus
}

func NewManagerService(bus EventBus, typingWindow time.Duration) *ManagerService {
	rooms := NewRoomTable()
	m := &ManagerService{
		Registry:     NewSessionRegistry(),
		Rooms:        rooms,
		Dispatcher:   NewDispatcher(rooms),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		PubSubCh:     make(chan models.ChatMessage, 256),
		Bus:          bus,
	}
	m.Typing = NewTypingTracker(typingWindow, m.broadcastPresence)
	return m
}

// Run is the hub's main loop. Registration, unregistration and message
// dispatch drain here one at a time, which keeps per-room delivery FIFO
// and guarantees no session handle is touched after its teardown
// completes.
func (m *ManagerService) Run() {
	m.startPubSubListener()

	for {
		select {
		case c := <-m.RegisterCh:
			m.Registry.Register(c)
			log.Printf("session %s registered for user %s", c.GetSessionID(), c.GetUserID())

		case c := <-m.UnregisterCh:
			m.unregister(c)

		case msg := <-m.PubSubCh:
			m.Dispatcher.Dispatch(msg)
		}
	}
}

// unregister tears a session down: registry removal, cascading room
// cleanup, and a stop_typing for every room where this user's typing
// state would otherwise be stuck. Idempotent; a second unregister for
// the same session is a no-op.
func (m *ManagerService) unregister(c Client) {
	if !m.Registry.Unregister(c) {
		return
	}

	userID := c.GetUserID()
	for _, roomID := range m.Rooms.LeaveAll(c) {
		if !m.Rooms.HasUser(roomID, userID) {
			m.Typing.Stop(roomID, userID)
		}
	}

	c.Close()
	log.Printf("session %s (user %s) unregistered", c.GetSessionID(), userID)
}

// broadcastPresence pushes a typing/stop_typing event to every member of
// the room except the typer's own sessions.
func (m *ManagerService) broadcastPresence(roomID string, ev models.Event) {
	for _, c := range m.Rooms.Members(roomID) {
		if c.GetUserID() == ev.UserID {
			continue
		}
		m.push(c, ev)
	}
}

// push is a non-blocking send to one session. One stalled client only
// loses its own event.
func (m *ManagerService) push(c Client, ev models.Event) {
	select {
	case c.GetSendChannel() <- ev:
	default:
		log.Printf("WARN: send buffer full, dropping %s for session %s", ev.Name, c.GetSessionID())
	}
}
