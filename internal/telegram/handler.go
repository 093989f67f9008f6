package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"alexabot/internal/llm"
	"alexabot/internal/sticker"
	"log/slog"

	"github.com/google/uuid"
)

const (
	welcomeTemplate = "Hey, %s! 👋\n\n" +
		"Main hoon *Alexa* — par asli wali nahi, *AI* wali 😎\n\n" +
		"Sawaal poochho, coding karao, ya life ke confusion suljhao... sab kuch *Free Hand* hai! 🥹\n\n" +
		"*2 minute me reply mil jaayega* — bas *dil se puchhna!* ❤️‍🔥\n" +
		"_Made with ❤️ and Madness by @Nakulrathod0405_"

	resetText = "🔄 Chat history reset!"

	typingText = "👩‍💻 Alexa is typing..."

	infoText = "🤖 *Bot Info:*\n\n" +
		" 🍬 Version: `OpenRouter + DeepSeek`\n" +
		" 👩‍⚖️ Model: `deepseek-chat`\n" +
		" 👨‍💻 Developer: [Nakul Rathod](https://t.me/Nakulrathod0405)\n" +
		" 🧬 API: `https://openrouter.ai/api/v1/chat/completions`"
)

// ChatService интерфейс диалогового сервиса. Reply не возвращает ошибку:
// любой сбой уже превращён в fallback-текст для пользователя.
type ChatService interface {
	Reply(ctx context.Context, userID int64, userText string) string
}

// Forwarder интерфейс аудита обменов. Best-effort, без ошибок.
type Forwarder interface {
	Forward(ctx context.Context, user *User, input, reply string)
}

type HandlerDeps struct {
	Chat      ChatService
	Sessions  llm.SessionStore
	Bot       BotClient
	Stickers  *sticker.Matcher
	Forwarder Forwarder
	Logger    *slog.Logger
	InfoDelay time.Duration
	Location  *time.Location
}

// Handler диспетчер входящих обновлений: четыре команды плюс
// текстовый обработчик по умолчанию. Один и тот же Handler
// обслуживает и long polling, и webhook.
type Handler struct {
	chat      ChatService
	sessions  llm.SessionStore
	bot       BotClient
	stickers  *sticker.Matcher
	forwarder Forwarder
	logger    *slog.Logger
	infoDelay time.Duration
	loc       *time.Location

	// userLocks сериализует обработку сообщений одного пользователя:
	// инварианты сессии держатся на том, что два сообщения одного
	// отправителя не обрабатываются одновременно.
	userMu    sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewHandler(deps HandlerDeps) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		chat:      deps.Chat,
		sessions:  deps.Sessions,
		bot:       deps.Bot,
		stickers:  deps.Stickers,
		forwarder: deps.Forwarder,
		logger:    deps.Logger,
		infoDelay: deps.InfoDelay,
		loc:       loc,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// HandleUpdate обрабатывает одно обновление от Telegram.
// Никогда не возвращает ошибку: любой сбой логируется, и цикл
// доставки продолжает жить.
func (h *Handler) HandleUpdate(ctx context.Context, upd Update) {
	if upd.Message == nil || upd.Message.From == nil {
		return
	}

	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		// Не текст (стикер, фото и т.п.): игнорируем, как и оригинальный бот
		return
	}

	lock := h.userLock(upd.Message.From.ID)
	lock.Lock()
	defer lock.Unlock()

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, upd.Message, text)
	} else {
		h.handleText(ctx, upd.Message, text)
	}
}

func (h *Handler) userLock(userID int64) *sync.Mutex {
	h.userMu.Lock()
	defer h.userMu.Unlock()

	lock, ok := h.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		h.userLocks[userID] = lock
	}
	return lock
}

func (h *Handler) handleCommand(ctx context.Context, msg *Message, text string) {
	parts := strings.SplitN(text, " ", 2)
	cmd := parts[0]
	// Срезаем упоминание бота: "/start@AlexaBot" → "/start"
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		h.replyMarkdown(ctx, msg.Chat.ID, fmt.Sprintf(welcomeTemplate, msg.From.FullName()))
	case "/reset":
		h.handleReset(ctx, msg)
	case "/usage":
		h.handleUsage(ctx, msg)
	case "/info":
		h.handleInfo(ctx, msg)
	default:
		if h.logger != nil {
			h.logger.Debug("unknown command ignored",
				slog.Int64("user_id", msg.From.ID),
				slog.String("command", cmd))
		}
	}
}

func (h *Handler) handleReset(ctx context.Context, msg *Message) {
	if err := h.sessions.Reset(ctx, msg.From.ID); err != nil {
		h.logError("reset session", msg.From.ID, err)
	}
	h.reply(ctx, msg.Chat.ID, resetText)
}

func (h *Handler) handleUsage(ctx context.Context, msg *Message) {
	count, err := h.sessions.Usage(ctx, msg.From.ID)
	if err != nil {
		h.logError("get usage", msg.From.ID, err)
	}
	h.reply(ctx, msg.Chat.ID, fmt.Sprintf("📊 Total messages: %d", count))
}

// handleInfo удаляет команду, показывает справку и убирает её спустя
// infoDelay. Оба удаления best-effort: нехватка прав или уже удалённое
// сообщение не должны ломать обработчик.
func (h *Handler) handleInfo(ctx context.Context, msg *Message) {
	if err := h.bot.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID); err != nil {
		h.logError("delete info command", msg.From.ID, err)
	}

	infoID, err := h.bot.SendMessageMarkdown(ctx, msg.Chat.ID, infoText)
	if err != nil {
		h.logError("send info", msg.From.ID, err)
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(h.infoDelay):
	}

	if err := h.bot.DeleteMessage(ctx, msg.Chat.ID, infoID); err != nil {
		h.logError("delete info message", msg.From.ID, err)
	}
}

func (h *Handler) handleText(ctx context.Context, msg *Message, text string) {
	user := msg.From
	exchangeID := uuid.NewString()

	placeholderID, err := h.bot.SendMessage(ctx, msg.Chat.ID, typingText)
	if err != nil {
		h.logError("send placeholder", user.ID, err)
	}

	reply := h.chat.Reply(ctx, user.ID, text)

	if placeholderID != 0 {
		if err := h.bot.DeleteMessage(ctx, msg.Chat.ID, placeholderID); err != nil {
			h.logError("delete placeholder", user.ID, err)
		}
	}

	// Стикер подбирается по исходному тексту пользователя, не по ответу
	if fileID, ok := h.stickers.Match(text); ok {
		if err := h.bot.SendSticker(ctx, msg.Chat.ID, fileID); err != nil {
			h.logError("send sticker", user.ID, err)
		}
	}

	h.reply(ctx, msg.Chat.ID, reply)

	if h.forwarder != nil {
		h.forwarder.Forward(ctx, user, text, reply)
	}

	if h.logger != nil {
		h.logger.Info("exchange",
			slog.String("exchange_id", exchangeID),
			slog.Int64("user_id", user.ID),
			slog.String("name", user.FullName()),
			slog.String("username", user.Handle()),
			slog.String("local_time", time.Now().In(h.loc).Format("02 Jan 2006, 03:04 PM")),
			slog.String("message", text),
			slog.String("reply", reply))
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		h.logError("send message", chatID, err)
	}
}

func (h *Handler) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessageMarkdown(ctx, chatID, text); err != nil {
		h.logError("send message", chatID, err)
	}
}

func (h *Handler) logError(action string, id int64, err error) {
	if h.logger != nil {
		h.logger.Error(action+" failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
	}
}
