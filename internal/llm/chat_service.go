package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultSystemPrompt используется, если SYSTEM_PROMPT не задан в окружении.
	DefaultSystemPrompt = "You are Alexa, a human-like emotional AI who helps warmly and naturally."

	// historyWindow задаёт, сколько последних реплик истории уходит в модель.
	// Хранится история целиком, окно ограничивает только запрос.
	historyWindow = 9

	// FallbackBadStatus отправляется пользователю при не-200 ответе OpenRouter.
	FallbackBadStatus = "🥺 Alexa thoda confuse ho gayi hai. Kuch galti ho gayi hai OpenRouter ke side se."

	// FallbackFailure отправляется при транспортной ошибке или ошибке разбора ответа.
	FallbackFailure = "🥺 Alexa thoda confuse ho gayi hai. Thoda ruk jaa..."
)

// ChatService предоставляет высокоуровневый метод диалога с моделью.
// Управляет историей сессии и счётчиком обменов.
type ChatService struct {
	client       Client
	store        SessionStore
	systemPrompt string
	logger       *slog.Logger
}

// ChatServiceConfig конфигурация для создания ChatService.
type ChatServiceConfig struct {
	Client       Client
	Store        SessionStore
	SystemPrompt string
	Logger       *slog.Logger
}

// NewChatService создаёт новый сервис диалогов с LLM.
func NewChatService(cfg ChatServiceConfig) *ChatService {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &ChatService{
		client:       cfg.Client,
		store:        cfg.Store,
		systemPrompt: systemPrompt,
		logger:       cfg.Logger,
	}
}

// Reply выполняет один обмен с моделью от имени пользователя.
// Никогда не возвращает ошибку вызывающему: любой сбой превращается
// в один из двух фиксированных fallback-текстов.
//
// Алгоритм:
//  1. Берём не более historyWindow последних реплик сессии.
//  2. Впереди ставим системный промпт (в сессии он не хранится).
//  3. В конец добавляем новую реплику пользователя.
//  4. Один запрос к модели, без ретраев.
//  5. Успех: пара user+assistant дописывается в сессию, счётчик растёт.
//     Любой сбой: сессия не изменяется.
func (s *ChatService) Reply(ctx context.Context, userID int64, userText string) string {
	history, _, err := s.store.Get(ctx, userID)
	if err != nil {
		s.logError(userID, fmt.Errorf("get session history: %w", err))
		return FallbackFailure
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: s.systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userText})

	reply, err := s.client.ChatCompletion(ctx, messages)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			if s.logger != nil {
				s.logger.Error("openrouter bad status",
					slog.Int64("user_id", userID),
					slog.Int("status", se.status),
					slog.String("body", se.body))
			}
			return FallbackBadStatus
		}
		s.logError(userID, err)
		return FallbackFailure
	}

	now := time.Now()
	userMsg := Message{Role: "user", Content: userText, Timestamp: now}
	assistantMsg := Message{Role: "assistant", Content: reply, Timestamp: now}

	if err := s.store.AppendPair(ctx, userID, userMsg, assistantMsg); err != nil {
		// Ответ уже получен, проблема только с сохранением: логируем и отдаём ответ
		s.logError(userID, fmt.Errorf("append session pair: %w", err))
		return reply
	}
	if err := s.store.IncrementUsage(ctx, userID); err != nil {
		s.logError(userID, fmt.Errorf("increment usage: %w", err))
	}

	return reply
}

func (s *ChatService) logError(userID int64, err error) {
	if s.logger != nil {
		s.logger.Error("openrouter request failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
	}
}
