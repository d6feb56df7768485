package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"survey-relay-service/internal/config"
	"survey-relay-service/internal/handlers"
	"survey-relay-service/internal/logger"
)

func NewRouter(cfg config.Config, log logger.Logger, chat *handlers.ChatHandlers, query *handlers.QueryHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.WithRequestLogging(log))
	r.Use(handlers.WithCORS(cfg))

	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	auth := handlers.WithAPIKey(cfg)

	r.With(auth).Post("/claude-proxy", chat.HandleChat)
	r.With(auth).Post("/survey-query", query.HandleQuery)

	return r
}
