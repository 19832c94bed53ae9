package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-room":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin create-room <user_id,user_id,...> [name]")
			os.Exit(1)
		}
		userIDs := strings.Split(os.Args[2], ",")
		if len(userIDs) < 2 {
			fmt.Println("A room needs at least two users.")
			os.Exit(1)
		}
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		roomID, err := createRoom(storageSvc, userIDs, name)
		if err != nil {
			log.Fatalf("Error creating room: %v", err)
		}
		fmt.Printf("Room %s created for %d users.\n", roomID, len(userIDs))

	case "close-room":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin close-room <room_id>")
			os.Exit(1)
		}
		if err := storageSvc.CloseRoom(os.Args[2]); err != nil {
			log.Fatalf("Error closing room: %v", err)
		}
		fmt.Printf("Room %s has been closed.\n", os.Args[2])

	case "list-rooms":
		rooms, err := storageSvc.GetActiveRooms()
		if err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
		for i := range rooms {
			kind := "direct"
			if rooms[i].IsGroup {
				kind = "group"
			}
			fmt.Printf("%s  %-6s  %d users  %s\n",
				rooms[i].RoomID, kind, len(rooms[i].UserIDs), rooms[i].Name)
		}

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}

func createRoom(s storage.Storage, userIDs []string, name string) (string, error) {
	room := &models.ChatRoom{
		RoomID:    uuid.New().String(),
		Name:      name,
		IsGroup:   len(userIDs) > 2,
		UserIDs:   pq.StringArray(userIDs),
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.SaveRoom(room); err != nil {
		return "", err
	}
	return room.RoomID, nil
}
