package httpserver

import (
	"net/http"

	"alexabot/internal/middleware"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Logger *slog.Logger

	// WebhookHandler подключается только в webhook-режиме доставки;
	// в режиме polling роутер отдаёт лишь /ping.
	WebhookHandler http.Handler
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	if deps.WebhookHandler != nil {
		r.Post("/telegram/webhook", deps.WebhookHandler.ServeHTTP)
	}

	return r
}
