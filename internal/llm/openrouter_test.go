package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alexabot/internal/config"
)

func newTestClient(baseURL string) *OpenRouterClient {
	return NewOpenRouterClient(config.OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "mistralai/mistral-7b-instruct",
		Referer: "https://yourdomain.com",
		Title:   "AlexaTGOpenRouter",
	}, &http.Client{Timeout: 5 * time.Second}, nil)
}

func TestOpenRouterClient_RequestShape(t *testing.T) {
	var gotBody map[string]any
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("cannot parse request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	reply, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if reply != "hi" {
		t.Fatalf("expected 'hi', got: %s", reply)
	}

	if gotBody["model"] != "mistralai/mistral-7b-instruct" {
		t.Fatalf("unexpected model: %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.9 {
		t.Fatalf("unexpected temperature: %v", gotBody["temperature"])
	}
	if gotBody["top_p"] != 1.0 {
		t.Fatalf("unexpected top_p: %v", gotBody["top_p"])
	}
	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("unexpected messages: %v", gotBody["messages"])
	}

	if gotHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %s", gotHeaders.Get("Authorization"))
	}
	if gotHeaders.Get("HTTP-Referer") != "https://yourdomain.com" {
		t.Fatalf("unexpected referer header: %s", gotHeaders.Get("HTTP-Referer"))
	}
	if gotHeaders.Get("X-Title") != "AlexaTGOpenRouter" {
		t.Fatalf("unexpected title header: %s", gotHeaders.Get("X-Title"))
	}
}

func TestOpenRouterClient_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected error on 500")
	}

	var se *statusError
	if !errors.As(err, &se) {
		t.Fatalf("expected statusError, got: %v", err)
	}
	if se.status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", se.status)
	}
}

func TestOpenRouterClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected decode error")
	}
	// Ошибка разбора не является statusError: ведёт к другому fallback
	var se *statusError
	if errors.As(err, &se) {
		t.Fatalf("decode error must not be statusError")
	}
}

func TestOpenRouterClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got: %v", err)
	}
}

func TestOpenRouterClient_SingleAttempt(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got: %d", calls)
	}
}
