// Package telegram bridges linked Telegram chats into the hub as
// secondary sessions, so room traffic reaches users who are away from
// the web client.
package telegram

import (
	"log"
	"strconv"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService receives Telegram updates and manages the bridge sessions.
type BotService struct {
	BotAPI  *tgbotapi.BotAPI
	Hub     *chathub.ManagerService
	Storage storage.Storage
}

func NewBotService(token string, hub *chathub.ManagerService, s storage.Storage) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("telegram bridge authorized on account %s", bot.Self.UserName)

	return &BotService{BotAPI: bot, Hub: hub, Storage: s}, nil
}

// registerBridge creates and registers a bridge session for a linked
// user and joins it to every active room the user belongs to, so
// fan-out finds it. A bridge already registered for the chat is torn
// down first; re-linking must not leave a stale session's pump behind.
func (s *BotService) registerBridge(userID string, chatID int64) {
	if old, ok := s.Hub.Registry.Get("tg:" + strconv.FormatInt(chatID, 10)); ok {
		s.Hub.UnregisterCh <- old
	}

	client := NewClient(s.BotAPI, userID, chatID)
	s.Hub.RegisterCh <- client
	client.Run()

	rooms, err := s.Storage.GetActiveRooms()
	if err != nil {
		log.Printf("ERROR: failed to list rooms for telegram bridge of user %s: %v", userID, err)
		return
	}
	for i := range rooms {
		for _, uid := range rooms[i].UserIDs {
			if uid == userID {
				s.Hub.Rooms.Join(rooms[i].RoomID, client)
				break
			}
		}
	}
}

// RestoreLinkedSessions re-registers bridge sessions for every linked
// user after a restart.
func (s *BotService) RestoreLinkedSessions() {
	users, err := s.Storage.GetLinkedUsers()
	if err != nil {
		log.Printf("ERROR: failed to load linked telegram users: %v", err)
		return
	}
	for i := range users {
		s.registerBridge(users[i].ID, users[i].TelegramChatID)
	}
	log.Printf("restored %d telegram bridge sessions", len(users))
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: failed to send telegram reply to chat %d: %v", chatID, err)
	}
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run() {
	s.RestoreLinkedSessions()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		msg := update.Message
		if msg == nil || !msg.IsCommand() {
			continue
		}

		switch msg.Command() {
		case "link":
			userID := msg.CommandArguments()
			if userID == "" {
				s.reply(msg.Chat.ID, "Usage: /link <user id>")
				continue
			}
			if _, err := s.Storage.GetUserByID(userID); err != nil {
				s.reply(msg.Chat.ID, "Unknown user id.")
				continue
			}
			if err := s.Storage.LinkTelegramChat(userID, msg.Chat.ID); err != nil {
				log.Printf("ERROR: failed to link telegram chat %d: %v", msg.Chat.ID, err)
				s.reply(msg.Chat.ID, "Link failed, try again later.")
				continue
			}
			s.registerBridge(userID, msg.Chat.ID)
			s.reply(msg.Chat.ID, "Linked. You will receive chat notifications here.")

		case "unlink":
			user, err := s.Storage.GetUserByTelegramChatID(msg.Chat.ID)
			if err != nil {
				s.reply(msg.Chat.ID, "This chat is not linked.")
				continue
			}
			if err := s.Storage.LinkTelegramChat(user.ID, 0); err != nil {
				log.Printf("ERROR: failed to unlink telegram chat %d: %v", msg.Chat.ID, err)
				continue
			}
			if c, ok := s.Hub.Registry.Get("tg:" + strconv.FormatInt(msg.Chat.ID, 10)); ok {
				s.Hub.UnregisterCh <- c
			}
			s.reply(msg.Chat.ID, "Unlinked.")

		default:
			s.reply(msg.Chat.ID, "Commands: /link <user id>, /unlink")
		}
	}
}
