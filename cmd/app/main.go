package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alexabot/internal/audit"
	"alexabot/internal/config"
	"alexabot/internal/httpserver"
	"alexabot/internal/llm"
	"alexabot/internal/sticker"
	"alexabot/internal/telegram"
	"alexabot/internal/transport"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to load timezone: %v", err)
	}

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)

	stickers, err := sticker.Load(cfg.StickersPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("stickers file not found, sticker replies disabled",
				slog.String("path", cfg.StickersPath))
			stickers = sticker.NewMatcher(nil)
		} else {
			log.Fatalf("failed to load stickers: %v", err)
		}
	} else {
		logger.Info("stickers loaded",
			slog.String("path", cfg.StickersPath),
			slog.Int("count", stickers.Len()))
	}

	sessions := llm.NewMemorySessionStore()
	llmClient := llm.NewOpenRouterClient(cfg.OpenRouter, httpClient, logger)
	chatService := llm.NewChatService(llm.ChatServiceConfig{
		Client:       llmClient,
		Store:        sessions,
		SystemPrompt: cfg.OpenRouter.SystemPrompt,
		Logger:       logger,
	})

	botClient := telegram.NewClient(cfg.Telegram, httpClient)

	var forwardBot telegram.BotClient
	if cfg.Forward.BotToken != "" {
		forwardBot = telegram.NewClient(config.TelegramConfig{
			BotToken:   cfg.Forward.BotToken,
			APIBaseURL: cfg.Telegram.APIBaseURL,
		}, httpClient)
	}
	forwarder := audit.New(forwardBot, cfg.Forward.ChatID, loc, logger)

	handler := telegram.NewHandler(telegram.HandlerDeps{
		Chat:      chatService,
		Sessions:  sessions,
		Bot:       botClient,
		Stickers:  stickers,
		Forwarder: forwarder,
		Logger:    logger,
		InfoDelay: cfg.InfoDelay,
		Location:  loc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerDeps := httpserver.RouterDeps{Logger: logger}

	switch cfg.DeliveryMode {
	case "webhook":
		routerDeps.WebhookHandler = telegram.NewWebhookHandler(handler, cfg.Telegram.WebhookSecret)
		logger.Info("delivery mode: webhook")
	default:
		poller := telegram.NewPoller(botClient, handler, logger)
		go func() {
			logger.Info("delivery mode: polling")
			poller.Run(ctx)
		}()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpserver.NewRouter(routerDeps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
