package chathub_test

import (
	"fmt"
	"testing"
	"time"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRunningHub(t *testing.T, bus *MockEventBus) *chathub.ManagerService {
	t.Helper()
	if bus != nil {
		bus.On("SubscribeEvents").Return(nil).Maybe()
	}
	var hub *chathub.ManagerService
	if bus == nil {
		hub = chathub.NewManagerService(nil, 100*time.Millisecond)
	} else {
		hub = chathub.NewManagerService(bus, 100*time.Millisecond)
	}
	go hub.Run()
	return hub
}

func TestManager_RegisterUnregister(t *testing.T) {
	hub := newRunningHub(t, new(MockEventBus))

	clientA := newMockClient("s1", "user_A")
	hub.RegisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	_, ok := hub.Registry.Get("s1")
	assert.True(t, ok)

	hub.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	_, ok = hub.Registry.Get("s1")
	assert.False(t, ok)
	assert.True(t, clientA.Closed())
}

func TestManager_UnregisterCascadesRoomCleanup(t *testing.T) {
	hub := newRunningHub(t, new(MockEventBus))

	clientA := newMockClient("s1", "user_A")
	hub.RegisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	hub.HandleEvent(clientA, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	hub.HandleEvent(clientA, models.Event{Name: models.EventJoinRoom, RoomID: "room2"})
	assert.True(t, hub.Rooms.IsMember("room1", clientA))

	hub.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	assert.False(t, hub.Rooms.IsMember("room1", clientA), "unregister releases every joined room")
	assert.False(t, hub.Rooms.IsMember("room2", clientA))
}

func TestManager_UnregisterStopsStuckTyping(t *testing.T) {
	hub := newRunningHub(t, new(MockEventBus))

	clientA := newMockClient("s1", "user_A")
	clientB := newMockClient("s2", "user_B")
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(50 * time.Millisecond)

	hub.HandleEvent(clientA, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	hub.HandleEvent(clientB, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	hub.HandleEvent(clientA, models.Event{Name: models.EventTyping, RoomID: "room1"})

	got := clientB.drainEvents()
	assert.Equal(t, 1, countByName(got, models.EventTyping), "peer sees the typing start")

	// The typer vanishes mid-typing; the indicator must not stay stuck.
	hub.UnregisterCh <- clientA
	time.Sleep(50 * time.Millisecond)

	got = clientB.drainEvents()
	assert.Equal(t, 1, countByName(got, models.EventStopTyping))
	assert.False(t, hub.Typing.IsTyping("room1", "user_A"))
}

func TestManager_UnregisterKeepsTypingWithSecondSession(t *testing.T) {
	hub := newRunningHub(t, new(MockEventBus))

	a1 := newMockClient("s1", "user_A")
	a2 := newMockClient("s2", "user_A")
	peer := newMockClient("s3", "user_B")
	hub.RegisterCh <- a1
	hub.RegisterCh <- a2
	hub.RegisterCh <- peer
	time.Sleep(50 * time.Millisecond)

	for _, c := range []*mockClient{a1, a2, peer} {
		hub.HandleEvent(c, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	}
	hub.HandleEvent(a1, models.Event{Name: models.EventTyping, RoomID: "room1"})

	hub.UnregisterCh <- a1
	time.Sleep(50 * time.Millisecond)

	// user_A still has a live session in the room, so the typing state
	// is left to its own expiry.
	got := peer.drainEvents()
	assert.Equal(t, 0, countByName(got, models.EventStopTyping))
}

func TestManager_PresenceBroadcastDuringTeardownDoesNotPanic(t *testing.T) {
	hub := newRunningHub(t, new(MockEventBus))

	typer := newMockClient("typer", "user_A")
	hub.RegisterCh <- typer
	hub.Rooms.Join("room1", typer)

	// Sessions churn through register/join/unregister while presence
	// broadcasts fire from another goroutine. A broadcaster that
	// snapshots the member list just before a teardown completes must
	// drop the event, not blow up the process.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			c := chathub.NewWebSocketClient(hub, nil, "user_B")
			hub.RegisterCh <- c
			hub.Rooms.Join("room1", c)
			hub.UnregisterCh <- c
		}
	}()

	for i := 0; i < 300; i++ {
		hub.Typing.Typing("room1", "user_A")
		hub.Typing.Stop("room1", "user_A")
	}
	<-done

	assert.False(t, hub.Typing.IsTyping("room1", "user_A"))
}

func TestManager_MessagePublishAndFanout(t *testing.T) {
	bus := new(MockEventBus)
	bus.On("PublishEvent", "room1", mock.AnythingOfType("models.ChatMessage")).Return(nil)
	hub := newRunningHub(t, bus)

	sender := newMockClient("s1", "user_A")
	viewer := newMockClient("s2", "user_B")
	hub.RegisterCh <- sender
	hub.RegisterCh <- viewer
	time.Sleep(50 * time.Millisecond)

	hub.HandleEvent(sender, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	hub.HandleEvent(viewer, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})

	msg := models.ChatMessage{ID: "m1", RoomID: "room1", SenderID: "user_A", Content: "hello"}
	hub.HandleEvent(sender, models.Event{Name: models.EventMessageSent, Message: &msg})

	bus.AssertCalled(t, "PublishEvent", "room1", mock.AnythingOfType("models.ChatMessage"))

	// Simulate the broker echoing the event back.
	hub.PubSubCh <- msg
	time.Sleep(50 * time.Millisecond)

	got := viewer.drainEvents()
	assert.Equal(t, 1, countByName(got, models.EventMessageReceived))
	assert.Empty(t, sender.drainEvents(), "no echo back to the sender")
}

func TestManager_LocalDispatchWithoutBroker(t *testing.T) {
	hub := newRunningHub(t, nil)

	sender := newMockClient("s1", "user_A")
	viewer := newMockClient("s2", "user_B")
	hub.RegisterCh <- sender
	hub.RegisterCh <- viewer
	time.Sleep(50 * time.Millisecond)

	hub.HandleEvent(sender, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})
	hub.HandleEvent(viewer, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})

	msg := models.ChatMessage{ID: "m1", RoomID: "room1", SenderID: "user_A", Content: "hi"}
	hub.HandleEvent(sender, models.Event{Name: models.EventMessageSent, Message: &msg})
	time.Sleep(50 * time.Millisecond)

	got := viewer.drainEvents()
	assert.Equal(t, 1, countByName(got, models.EventMessageReceived))
}

func TestManager_FanoutPreservesRoomOrder(t *testing.T) {
	hub := newRunningHub(t, nil)

	viewer := newMockClientBuffer("s1", "user_B", 32)
	hub.RegisterCh <- viewer
	time.Sleep(50 * time.Millisecond)
	hub.HandleEvent(viewer, models.Event{Name: models.EventJoinRoom, RoomID: "room1"})

	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("m%02d", i)
		ids = append(ids, id)
		hub.PubSubCh <- models.ChatMessage{ID: id, RoomID: "room1", SenderID: "user_A", Content: id}
	}
	time.Sleep(50 * time.Millisecond)

	got := viewer.drainEvents()
	assert.Len(t, got, 10)
	for i, ev := range got {
		assert.Equal(t, models.EventMessageReceived, ev.Name)
		assert.Equal(t, ids[i], ev.Message.ID, "room deliveries keep arrival order")
	}
}
