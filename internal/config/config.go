package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	DeliveryMode   string
	RequestTimeout time.Duration
	InfoDelay      time.Duration
	Timezone       string
	StickersPath   string
	OpenRouter     OpenRouterConfig
	Telegram       TelegramConfig
	Forward        ForwardConfig
}

type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Referer      string
	Title        string
}

type TelegramConfig struct {
	BotToken      string
	APIBaseURL    string
	WebhookSecret string
}

// ForwardConfig описывает второго бота, который пересылает переписку
// в приватный чат для аудита.
type ForwardConfig struct {
	BotToken string
	ChatID   string
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.DeliveryMode = getEnv("DELIVERY_MODE", "polling")
	cfg.Timezone = getEnv("TIMEZONE", "")
	cfg.StickersPath = getEnv("STICKERS_PATH", "stickers.json")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	infoDelay, err := parseDuration(getEnv("INFO_DELAY", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse INFO_DELAY: %w", err)
	}
	cfg.InfoDelay = infoDelay

	cfg.OpenRouter = OpenRouterConfig{
		APIKey:       getEnv("OPENROUTER_API_KEY", ""),
		BaseURL:      getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:        getEnv("OPENROUTER_MODEL", "mistralai/mistral-7b-instruct"),
		SystemPrompt: getEnv("SYSTEM_PROMPT", ""),
		Referer:      getEnv("OPENROUTER_REFERER", "https://yourdomain.com"),
		Title:        getEnv("OPENROUTER_TITLE", "AlexaTGOpenRouter"),
	}

	cfg.Telegram = TelegramConfig{
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}

	cfg.Forward = ForwardConfig{
		BotToken: getEnv("FORWARD_BOT_TOKEN", ""),
		ChatID:   getEnv("FORWARD_CHAT_ID", ""),
	}

	return cfg, nil
}

// Location возвращает часовой пояс для меток времени в аудите и логах.
// Пустое значение означает локальный пояс процесса.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("parse TIMEZONE: %w", err)
	}
	return loc, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
