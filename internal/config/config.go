package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultTypingWindow is the typing debounce: how long a typing flag
	// stays active after the last typing event before it auto-expires.
	DefaultTypingWindow = 3000 * time.Millisecond

	// DefaultHistoryLimit bounds catch-up reads when the client does not
	// ask for a specific count.
	DefaultHistoryLimit = 50

	// TokenTTL is the lifetime of issued session tokens.
	TokenTTL = 72 * time.Hour
)

// Config carries the process-level settings, populated from the
// environment (optionally via a .env file).
type Config struct {
	HTTPAddr      string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	TelegramToken string
	TypingWindow  time.Duration
}

// Load reads the .env file if present and builds the config from the
// environment with development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", "host=localhost user=user password=password dbname=chatrelay port=5432 sslmode=disable"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TypingWindow:  DefaultTypingWindow,
	}

	if ms := os.Getenv("TYPING_WINDOW_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.TypingWindow = time.Duration(v) * time.Millisecond
		} else {
			log.Printf("Warning: ignoring invalid TYPING_WINDOW_MS %q", ms)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
