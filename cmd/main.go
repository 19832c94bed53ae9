package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chatrelay/backend/internal/api/handler"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
	"chatrelay/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.ChatRoom{},
		&models.ChatHistory{},
		&models.User{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting chatrelay backend...")

	cfg := config.Load()
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	hub := chathub.NewManagerService(s, cfg.TypingWindow)
	go hub.Run()

	if cfg.TelegramToken != "" {
		botService, err := telegram.NewBotService(cfg.TelegramToken, hub, s)
		if err != nil {
			log.Fatalf("Failed to start telegram bridge: %v", err)
		}
		go botService.Run()
	}

	r := gin.Default()
	h := handler.NewHandler(hub, s, cfg)

	r.GET("/token", h.GetToken)
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/rooms/:id/history", h.GetRoomHistory)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
