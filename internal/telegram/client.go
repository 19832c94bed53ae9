package telegram

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	"chatrelay/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client implements the chathub.Client interface over a linked Telegram
// chat. A bridge session never reports a viewing room, so every room
// message it is joined to arrives as a notification and is relayed as a
// Telegram message.
type Client struct {
	UserID string
	ChatID int64
	BotAPI *tgbotapi.BotAPI
	Send   chan models.Event

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	notified map[string]map[string]struct{}
}

func NewClient(bot *tgbotapi.BotAPI, userID string, chatID int64) *Client {
	return &Client{
		UserID:   userID,
		ChatID:   chatID,
		BotAPI:   bot,
		Send:     make(chan models.Event, 32),
		done:     make(chan struct{}),
		notified: make(map[string]map[string]struct{}),
	}
}

func (c *Client) GetSessionID() string                { return "tg:" + strconv.FormatInt(c.ChatID, 10) }
func (c *Client) GetUserID() string                   { return c.UserID }
func (c *Client) GetViewingRoomID() string            { return "" }
func (c *Client) SetViewingRoomID(string)             {}
func (c *Client) GetSendChannel() chan<- models.Event { return c.Send }

func (c *Client) TrackNotification(roomID, messageID string) bool {
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

func (c *Client) ClearNotifications(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.notified, roomID)
}

// Run starts the write pump. There is no read pump: inbound Telegram
// traffic is handled centrally by the BotService update loop.
func (c *Client) Run() {
	go c.writePump()
}

// Close signals the write pump to shut down. The Send channel stays
// open so a fan-out racing with teardown lands in the buffer instead of
// panicking.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump relays hub events to the linked Telegram chat. Presence
// events are skipped; a chat notification for every keystroke would be
// noise.
func (c *Client) writePump() {
	defer log.Printf("stopping write pump for telegram session %s", c.GetSessionID())

	for {
		select {
		case <-c.done:
			return

		case ev := <-c.Send:
			switch ev.Name {
			case models.EventMessageReceived, models.EventNotification:
				if ev.Message == nil {
					continue
				}
				text := fmt.Sprintf("💬 New message in room %s:\n%s", ev.Message.RoomID, ev.Message.Content)
				if _, err := c.BotAPI.Send(tgbotapi.NewMessage(c.ChatID, text)); err != nil {
					log.Printf("ERROR: failed to relay message %s to telegram chat %d: %v", ev.Message.ID, c.ChatID, err)
				}
			default:
				// typing, connected and friends stay on the realtime channel
			}
		}
	}
}
