package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// SendBufferSize is the per-session outbound queue depth. Fan-out
	// never blocks on it; overflow means dropped deliveries for that
	// session only.
	SendBufferSize = 256
)

// WebSocketClient implements the Client interface over a gorilla
// websocket connection.
type WebSocketClient struct {
	SessionID string
	UserID    string
	Conn      *websocket.Conn
	Hub       *ManagerService
	Send      chan models.Event

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	viewing  string
	notified map[string]map[string]struct{}
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID string) *WebSocketClient {
	return &WebSocketClient{
		SessionID: uuid.New().String(),
		UserID:    userID,
		Conn:      conn,
		Hub:       hub,
		Send:      make(chan models.Event, SendBufferSize),
		done:      make(chan struct{}),
		notified:  make(map[string]map[string]struct{}),
	}
}

func (c *WebSocketClient) GetSessionID() string                { return c.SessionID }
func (c *WebSocketClient) GetUserID() string                   { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

func (c *WebSocketClient) GetViewingRoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewing
}

func (c *WebSocketClient) SetViewingRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewing = roomID
}

func (c *WebSocketClient) TrackNotification(roomID, messageID string) bool {
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

func (c *WebSocketClient) ClearNotifications(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.notified, roomID)
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close signals the write pump to shut down. The Send channel is never
// closed: fan-out goroutines may still hold a handle to this session
// after teardown, and a send must land in the buffer (or be dropped),
// never panic.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump decodes inbound events off the socket and hands them to the
// gateway. A dead or closed connection ends the pump, which triggers
// unregistration and cascading cleanup.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from session %s: %v", c.SessionID, err)
			}
			break
		}

		var ev models.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("dropping malformed event from session %s: %v", c.SessionID, err)
			continue
		}

		c.Hub.HandleEvent(c, ev)
	}
}

// writePump drains the Send channel onto the socket and keeps the
// connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case ev := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("error encoding event for session %s: %v", c.SessionID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
