package llm

import (
	"context"
	"time"
)

// Message представляет одну реплику диалога.
type Message struct {
	Role      string    `json:"role"`      // "system", "user", "assistant"
	Content   string    `json:"content"`   // текст сообщения
	Timestamp time.Time `json:"timestamp"` // время добавления
}

// SessionStore интерфейс для хранения сессий пользователей.
// Сессия состоит из истории реплик и счётчика успешных обменов.
type SessionStore interface {
	// Get возвращает историю реплик пользователя.
	// Второй параметр bool указывает, существует ли сессия.
	Get(ctx context.Context, userID int64) ([]Message, bool, error)

	// AppendPair добавляет пару реплик user+assistant к сессии.
	// Если сессии не существует, она будет создана.
	// Реплики добавляются только парами: история никогда не содержит
	// незакрытого пользовательского хода.
	AppendPair(ctx context.Context, userID int64, user, assistant Message) error

	// IncrementUsage увеличивает счётчик успешных обменов на единицу.
	IncrementUsage(ctx context.Context, userID int64) error

	// Usage возвращает счётчик успешных обменов (0 для неизвестного пользователя).
	Usage(ctx context.Context, userID int64) (int, error)

	// Reset удаляет сессию целиком: и историю, и счётчик.
	Reset(ctx context.Context, userID int64) error
}
