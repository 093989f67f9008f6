package telegram

import (
	"encoding/json"
	"net/http"

	"alexabot/internal/httpserver"
)

// WebhookHandler принимает обновления пушем от Telegram.
// Альтернатива long polling; использует тот же Handler.
type WebhookHandler struct {
	handler *Handler
	secret  string
}

func NewWebhookHandler(handler *Handler, secret string) *WebhookHandler {
	return &WebhookHandler{
		handler: handler,
		secret:  secret,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		if secret := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); secret != h.secret {
			httpserver.WriteJSONError(w, http.StatusForbidden, "forbidden", "invalid webhook secret")
			return
		}
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse update")
		return
	}

	h.handler.HandleUpdate(r.Context(), upd)

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}
