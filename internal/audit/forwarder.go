package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"alexabot/internal/telegram"
	"log/slog"
)

// Forwarder пересылает каждый обмен в приватный чат через второго бота.
// Любая ошибка пересылки гасится на месте: основной поток ответа
// пользователю не зависит от аудита.
type Forwarder struct {
	bot     telegram.BotClient
	chatID  int64
	loc     *time.Location
	logger  *slog.Logger
	enabled bool
}

// New создаёт Forwarder. Если токен второго бота или идентификатор
// чата не заданы (или идентификатор не разбирается), пересылка
// отключается целиком, о чём пишется в лог.
func New(bot telegram.BotClient, chatID string, loc *time.Location, logger *slog.Logger) *Forwarder {
	f := &Forwarder{
		bot:    bot,
		loc:    loc,
		logger: logger,
	}
	if bot == nil || chatID == "" {
		if logger != nil {
			logger.Warn("audit forwarding disabled: missing forward bot token or chat id")
		}
		return f
	}

	parsed, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		if logger != nil {
			logger.Warn("audit forwarding disabled: bad chat id",
				slog.String("chat_id", chatID),
				slog.String("error", err.Error()))
		}
		return f
	}

	f.chatID = parsed
	f.enabled = true
	return f
}

// Enabled сообщает, активна ли пересылка.
func (f *Forwarder) Enabled() bool {
	return f.enabled
}

// Forward отправляет один обмен в чат аудита. Best-effort:
// ошибки логируются и никогда не возвращаются вызывающему.
func (f *Forwarder) Forward(ctx context.Context, user *telegram.User, input, reply string) {
	if !f.enabled {
		return
	}

	now := time.Now()
	if f.loc != nil {
		now = now.In(f.loc)
	}

	text := fmt.Sprintf("📩 *New Alexa Chat*\n\n"+
		"👤 *User:* %s (%s) \n"+
		"🕒 *Time:* %s  \n"+
		"💬 *Message:*  \n"+
		"`%s`  \n"+
		"🤖 *Alexa's Reply:*  \n"+
		"`%s`",
		user.FullName(), user.Handle(), now.Format("03:04 PM"), input, reply)

	if _, err := f.bot.SendMessageMarkdown(ctx, f.chatID, text); err != nil {
		if f.logger != nil {
			f.logger.Error("audit forward failed",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()))
		}
	}
}
