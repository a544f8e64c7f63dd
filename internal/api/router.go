package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/numberguess/internal/api/handler"
	"github.com/mcoot/numberguess/internal/api/middleware"
	"github.com/mcoot/numberguess/internal/services/game"
	"github.com/mcoot/numberguess/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	Hub            *sse.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Hub, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", gameHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/round", gameHandler.Round).Methods(http.MethodGet)
	api.HandleFunc("/ranking", gameHandler.Ranking).Methods(http.MethodGet)
	api.HandleFunc("/history", gameHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/events", gameHandler.Events).Methods(http.MethodGet)

	return r
}
