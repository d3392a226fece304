package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application settings.
type Config struct {
	// Server
	Port   string
	Host   string
	AppURL string

	// Database
	DBPath string

	// File storage
	UploadPath  string
	MaxFileSize int64

	// Security
	JWTSecret     string
	JWTExpiration time.Duration
	BotAPIKey     string

	// Web push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// Telegram reminder digest (optional)
	TelegramBotToken string
	TelegramChatID   int64

	// Bootstrap teacher account
	TeacherUsername string
	TeacherName     string
	TeacherPassword string
}

// Load reads the configuration from environment variables, with an optional
// .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:             getEnv("PORT", "8000"),
		Host:             getEnv("HOST", "0.0.0.0"),
		AppURL:           getEnv("APP_URL", "http://localhost:8000"),
		DBPath:           getEnv("DB_PATH", "data/artemis.db"),
		UploadPath:       getEnv("UPLOAD_PATH", "data/uploads"),
		JWTSecret:        getEnv("JWT_SECRET", "artemis_secret_key"),
		JWTExpiration:    30 * 24 * time.Hour,
		BotAPIKey:        getEnv("BOT_API_KEY", ""),
		VAPIDPublicKey:   getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:  getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:     getEnv("VAPID_SUBJECT", "mailto:admin@localhost"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TeacherUsername:  getEnv("TEACHER_USERNAME", "guru"),
		TeacherName:      getEnv("TEACHER_NAME", "Guru"),
		TeacherPassword:  getEnv("TEACHER_PASSWORD", ""),
	}

	if maxFileSize, err := strconv.ParseInt(getEnv("MAX_FILE_SIZE", "104857600"), 10, 64); err == nil {
		config.MaxFileSize = maxFileSize
	} else {
		config.MaxFileSize = 100 * 1024 * 1024 // 100MB default
	}

	if chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64); err == nil {
		config.TelegramChatID = chatID
	}

	return config, nil
}

// getEnv returns the environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
