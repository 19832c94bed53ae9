package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"chatrelay/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrRoomNotFound is returned when a room id has no canonical record.
var ErrRoomNotFound = errors.New("chat room not found")

// Storage is the persistence collaborator surface the rest of the
// backend consumes. Rooms and message history are owned by the external
// chat API; this layer only reads them back (and provisions rooms for
// the admin CLI). PublishEvent/SubscribeEvents carry realtime message
// events across instances via Redis.
type Storage interface {
	SaveRoom(room *models.ChatRoom) error
	CloseRoom(roomID string) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	GetActiveRooms() ([]models.ChatRoom, error)

	GetChatHistory(roomID string, limit int) ([]models.ChatHistory, error)

	SaveUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByTelegramChatID(chatID int64) (*models.User, error)
	LinkTelegramChat(userID string, chatID int64) error
	GetLinkedUsers() ([]models.User, error)

	PublishEvent(roomID string, msg models.ChatMessage) error
	SubscribeEvents() *redis.PubSub
}

// eventChannelPrefix namespaces the Redis pub/sub channels used for
// message fan-out; one channel per room.
const eventChannelPrefix = "room:"

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructs the storage service. The Redis client may
// be nil for tools that only touch the database (admin CLI).
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveRoom persists a canonical room record.
func (s *Service) SaveRoom(room *models.ChatRoom) error {
	return s.DB.Save(room).Error
}

// CloseRoom marks a room inactive.
func (s *Service) CloseRoom(roomID string) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"closed_at": gorm.Expr("NOW()"),
		}).Error
}

// GetRoomByID loads the canonical room record.
func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// GetActiveRooms lists every room currently open for traffic.
func (s *Service) GetActiveRooms() ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := s.DB.Where("is_active = ?", true).Find(&rooms).Error; err != nil {
		log.Printf("ERROR: failed to list active rooms: %v", err)
		return nil, err
	}
	return rooms, nil
}

// GetChatHistory returns the most recent messages for a room in creation
// order, for catch-up after reconnect. An unknown room yields an empty
// slice, not an error.
func (s *Service) GetChatHistory(roomID string, limit int) ([]models.ChatHistory, error) {
	var history []models.ChatHistory
	// Newest rows first so the limit keeps the most recent messages,
	// then reversed back into creation order for the client.
	q := s.DB.Where("room_id = ?", roomID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return history, nil
		}
		log.Printf("ERROR: failed to get chat history for room %s: %v", roomID, err)
		return nil, err
	}
	reverseHistory(history)
	return history, nil
}

// reverseHistory flips a newest-first result set into creation order.
func reverseHistory(history []models.ChatHistory) {
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
}

// SaveUser persists a user record.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// GetUserByID loads a user by their internal id.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByTelegramChatID finds the user linked to a Telegram chat.
func (s *Service) GetUserByTelegramChatID(chatID int64) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "telegram_chat_id = ?", chatID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkTelegramChat binds a Telegram chat to an existing user so the
// bridge can deliver notifications there.
func (s *Service) LinkTelegramChat(userID string, chatID int64) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("telegram_chat_id", chatID).Error
}

// GetLinkedUsers lists users with a Telegram chat bound.
func (s *Service) GetLinkedUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("telegram_chat_id <> 0").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// PublishEvent publishes a message event on the room's Redis channel.
func (s *Service) PublishEvent(roomID string, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, eventChannelPrefix+roomID, payload).Err()
}

// SubscribeEvents subscribes to every room channel on this broker.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, eventChannelPrefix+"*")
}
