package llm

import (
	"context"
	"sync"
	"time"
)

// sessionData содержит историю пользователя и счётчик обменов.
type sessionData struct {
	messages    []Message
	usage       int
	createdAt   time.Time
	lastTouched time.Time
}

// MemorySessionStore потокобезопасное in-memory хранилище сессий.
// Хранилище не ограничено по размеру: ограничено только окно,
// отправляемое в модель, а не накопленная история.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]sessionData
}

// NewMemorySessionStore создаёт новое in-memory хранилище сессий.
// Сессии живут до перезапуска процесса или явного Reset.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[int64]sessionData),
	}
}

// Get возвращает историю реплик пользователя.
func (s *MemorySessionStore) Get(ctx context.Context, userID int64) ([]Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.sessions[userID]
	if !ok {
		return nil, false, nil
	}

	// Возвращаем копию, чтобы избежать изменений снаружи
	messages := make([]Message, len(data.messages))
	copy(messages, data.messages)
	return messages, true, nil
}

// AppendPair добавляет пару реплик user+assistant.
// Если сессии не существует, она создаётся.
func (s *MemorySessionStore) AppendPair(ctx context.Context, userID int64, user, assistant Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data, ok := s.sessions[userID]
	if !ok {
		data = sessionData{
			createdAt:   now,
			lastTouched: now,
		}
	}

	data.messages = append(data.messages, user, assistant)
	data.lastTouched = now
	s.sessions[userID] = data

	return nil
}

// IncrementUsage увеличивает счётчик успешных обменов.
// Если сессии не существует, она создаётся со счётчиком 1.
func (s *MemorySessionStore) IncrementUsage(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data, ok := s.sessions[userID]
	if !ok {
		data = sessionData{
			createdAt:   now,
			lastTouched: now,
		}
	}

	data.usage++
	data.lastTouched = now
	s.sessions[userID] = data

	return nil
}

// Usage возвращает счётчик успешных обменов (0 для неизвестного пользователя).
func (s *MemorySessionStore) Usage(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions[userID].usage, nil
}

// Reset удаляет сессию: историю и счётчик одновременно,
// в одной критической секции.
func (s *MemorySessionStore) Reset(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}
