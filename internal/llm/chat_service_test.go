package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// stubClient реализует Client для тестов.
type stubClient struct {
	reply    string
	err      error
	lastSent []Message
}

func (s *stubClient) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	s.lastSent = make([]Message, len(messages))
	copy(s.lastSent, messages)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestService(client Client, store SessionStore, systemPrompt string) *ChatService {
	return NewChatService(ChatServiceConfig{
		Client:       client,
		Store:        store,
		SystemPrompt: systemPrompt,
	})
}

func TestChatService_SuccessfulExchange(t *testing.T) {
	store := NewMemorySessionStore()
	client := &stubClient{reply: "hello there"}
	svc := newTestService(client, store, "")
	ctx := context.Background()

	reply := svc.Reply(ctx, 1, "hi")
	if reply != "hello there" {
		t.Fatalf("expected model reply, got: %s", reply)
	}

	messages, found, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatalf("expected session after exchange")
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 turns, got: %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "hi" {
		t.Fatalf("unexpected user turn: %+v", messages[0])
	}
	if messages[1].Role != "assistant" || messages[1].Content != "hello there" {
		t.Fatalf("unexpected assistant turn: %+v", messages[1])
	}

	count, err := store.Usage(ctx, 1)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected usage 1, got: %d", count)
	}
}

func TestChatService_SystemPromptInjected(t *testing.T) {
	store := NewMemorySessionStore()
	client := &stubClient{reply: "ok"}
	svc := newTestService(client, store, "custom prompt")
	ctx := context.Background()

	svc.Reply(ctx, 1, "hi")

	if len(client.lastSent) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(client.lastSent))
	}
	if client.lastSent[0].Role != "system" || client.lastSent[0].Content != "custom prompt" {
		t.Fatalf("unexpected system turn: %+v", client.lastSent[0])
	}

	// Системный промпт не сохраняется в сессии
	messages, _, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for _, msg := range messages {
		if msg.Role == "system" {
			t.Fatalf("system prompt leaked into session: %+v", msg)
		}
	}
}

func TestChatService_DefaultSystemPrompt(t *testing.T) {
	client := &stubClient{reply: "ok"}
	svc := newTestService(client, NewMemorySessionStore(), "")

	svc.Reply(context.Background(), 1, "hi")

	if client.lastSent[0].Content != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt, got: %s", client.lastSent[0].Content)
	}
}

func TestChatService_HistoryWindow(t *testing.T) {
	store := NewMemorySessionStore()
	client := &stubClient{reply: "ok"}
	svc := newTestService(client, store, "")
	ctx := context.Background()

	// Накапливаем 6 пар (12 реплик), это больше окна
	for i := 0; i < 6; i++ {
		user := Message{Role: "user", Content: fmt.Sprintf("q%d", i), Timestamp: time.Now()}
		assistant := Message{Role: "assistant", Content: fmt.Sprintf("a%d", i), Timestamp: time.Now()}
		if err := store.AppendPair(ctx, 1, user, assistant); err != nil {
			t.Fatalf("AppendPair failed: %v", err)
		}
	}

	svc.Reply(ctx, 1, "new question")

	// system(1) + окно(9) + новая реплика(1) = 11
	if len(client.lastSent) != 11 {
		t.Fatalf("expected 11 messages, got: %d", len(client.lastSent))
	}
	if client.lastSent[0].Role != "system" {
		t.Fatalf("expected system first, got: %s", client.lastSent[0].Role)
	}
	// Окно состоит из последних 9 реплик: начинается с a1 (срез по позиции, не по парам)
	if client.lastSent[1].Content != "a1" {
		t.Fatalf("expected window to start with a1, got: %s", client.lastSent[1].Content)
	}
	last := client.lastSent[len(client.lastSent)-1]
	if last.Role != "user" || last.Content != "new question" {
		t.Fatalf("unexpected trailing turn: %+v", last)
	}
}

func TestChatService_BadStatusLeavesSessionUntouched(t *testing.T) {
	store := NewMemorySessionStore()
	client := &stubClient{err: &statusError{status: 500, body: "boom"}}
	svc := newTestService(client, store, "")
	ctx := context.Background()

	user := Message{Role: "user", Content: "old", Timestamp: time.Now()}
	assistant := Message{Role: "assistant", Content: "old reply", Timestamp: time.Now()}
	if err := store.AppendPair(ctx, 1, user, assistant); err != nil {
		t.Fatalf("AppendPair failed: %v", err)
	}

	reply := svc.Reply(ctx, 1, "hi")
	if reply != FallbackBadStatus {
		t.Fatalf("expected bad status fallback, got: %s", reply)
	}

	messages, _, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("session mutated on failure: %d turns", len(messages))
	}
	count, err := store.Usage(ctx, 1)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("usage incremented on failure: %d", count)
	}
}

func TestChatService_TransportErrorFallback(t *testing.T) {
	store := NewMemorySessionStore()
	client := &stubClient{err: errors.New("connection refused")}
	svc := newTestService(client, store, "")

	reply := svc.Reply(context.Background(), 1, "hi")
	if reply != FallbackFailure {
		t.Fatalf("expected failure fallback, got: %s", reply)
	}

	_, found, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Fatalf("session created on failure")
	}
}
