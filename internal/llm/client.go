package llm

import "context"

// Client минимальный публичный интерфейс LLM клиента.
type Client interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}
