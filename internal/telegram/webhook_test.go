package telegram

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"alexabot/internal/llm"
	"alexabot/internal/sticker"
)

func TestWebhook_DispatchesUpdate(t *testing.T) {
	bot := &stubBot{}
	handler := newTestHandler(bot, &stubChat{}, llm.NewMemorySessionStore(), sticker.NewMatcher(nil), &stubForwarder{})
	webhook := NewWebhookHandler(handler, "")

	update := textUpdate(1, "/start")
	body, _ := json.Marshal(update)

	req := httptest.NewRequest("POST", "/telegram/webhook", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	webhook.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(bot.sent) == 0 {
		t.Fatalf("expected bot message")
	}
}

func TestWebhook_RejectsBadSecret(t *testing.T) {
	bot := &stubBot{}
	handler := newTestHandler(bot, &stubChat{}, llm.NewMemorySessionStore(), sticker.NewMatcher(nil), &stubForwarder{})
	webhook := NewWebhookHandler(handler, "s3cret")

	update := textUpdate(1, "/start")
	body, _ := json.Marshal(update)

	req := httptest.NewRequest("POST", "/telegram/webhook", bytes.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rr := httptest.NewRecorder()
	webhook.ServeHTTP(rr, req)

	if rr.Code != 403 {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
	if len(bot.sent) != 0 {
		t.Fatalf("update must not be dispatched on bad secret")
	}
}

func TestWebhook_RejectsMalformedBody(t *testing.T) {
	bot := &stubBot{}
	handler := newTestHandler(bot, &stubChat{}, llm.NewMemorySessionStore(), sticker.NewMatcher(nil), &stubForwarder{})
	webhook := NewWebhookHandler(handler, "")

	req := httptest.NewRequest("POST", "/telegram/webhook", bytes.NewReader([]byte("{broken")))
	rr := httptest.NewRecorder()
	webhook.ServeHTTP(rr, req)

	if rr.Code != 400 {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
