package telegram

import (
	"context"
	"time"

	"log/slog"
)

// Poller крутит длинный опрос getUpdates и раздаёт обновления
// обработчику. Каждое обновление уходит в свою горутину; порядок
// внутри одного пользователя обеспечивает keyed mutex в Handler.
type Poller struct {
	bot     BotClient
	handler *Handler
	logger  *slog.Logger

	pollTimeout time.Duration
	errorPause  time.Duration
}

func NewPoller(bot BotClient, handler *Handler, logger *slog.Logger) *Poller {
	return &Poller{
		bot:         bot,
		handler:     handler,
		logger:      logger,
		pollTimeout: 30 * time.Second,
		errorPause:  3 * time.Second,
	}
}

// Run блокируется до отмены контекста. Ошибки опроса логируются,
// цикл продолжается после паузы: ни один сбой не фатален.
func (p *Poller) Run(ctx context.Context) {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := p.bot.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if p.logger != nil {
				p.logger.Error("get updates failed", slog.String("error", err.Error()))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.errorPause):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go p.handler.HandleUpdate(ctx, upd)
		}
	}
}
