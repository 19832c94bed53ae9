package chathub_test

import (
	"sync"

	"chatrelay/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a testify mock of the chathub.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) PublishEvent(roomID string, msg models.ChatMessage) error {
	args := m.Called(roomID, msg)
	return args.Error(0)
}

func (m *MockEventBus) SubscribeEvents() *redis.PubSub {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.PubSub)
}

// mockClient is a test double for the chathub.Client interface. Events
// pushed by the hub land in RecvChannel, buffered so tests never block.
type mockClient struct {
	sessionID string
	userID    string

	mu       sync.Mutex
	viewing  string
	notified map[string]map[string]struct{}
	closed   bool

	RecvChannel chan models.Event
}

func newMockClient(sessionID, userID string) *mockClient {
	return newMockClientBuffer(sessionID, userID, 10)
}

func newMockClientBuffer(sessionID, userID string, buffer int) *mockClient {
	return &mockClient{
		sessionID:   sessionID,
		userID:      userID,
		notified:    make(map[string]map[string]struct{}),
		RecvChannel: make(chan models.Event, buffer),
	}
}

func (c *mockClient) GetSessionID() string                { return c.sessionID }
func (c *mockClient) GetUserID() string                   { return c.userID }
func (c *mockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }

func (c *mockClient) GetViewingRoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewing
}

func (c *mockClient) SetViewingRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewing = roomID
}

func (c *mockClient) TrackNotification(roomID, messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.notified[roomID]
	if !ok {
		ids = make(map[string]struct{})
		c.notified[roomID] = ids
	}
	if _, dup := ids[messageID]; dup {
		return false
	}
	ids[messageID] = struct{}{}
	return true
}

func (c *mockClient) ClearNotifications(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.notified, roomID)
}

func (c *mockClient) Run() {}

func (c *mockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *mockClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drainEvents empties the receive channel and returns what was queued.
func (c *mockClient) drainEvents() []models.Event {
	var events []models.Event
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func countByName(events []models.Event, name string) int {
	n := 0
	for _, ev := range events {
		if ev.Name == name {
			n++
		}
	}
	return n
}
