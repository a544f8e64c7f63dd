package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mcoot/numberguess/internal/api/request"
	"github.com/mcoot/numberguess/internal/api/response"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/services/game"
	"github.com/mcoot/numberguess/internal/web/sse"
)

// GameHandler exposes read-only views of the running game
type GameHandler struct {
	gameController *game.Controller
	hub            *sse.Hub
	renderer       *sse.Renderer
	logger         *slog.Logger
}

// NewGameHandler creates a new game handler. hub may be nil, which disables the event stream.
func NewGameHandler(gameController *game.Controller, hub *sse.Hub, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		hub:            hub,
		renderer:       sse.NewRenderer(),
		logger:         logger,
	}
}

// Health handles GET /health
func (h *GameHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Round handles GET /round
func (h *GameHandler) Round(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoundFromModel(h.gameController.CurrentRound()))
}

// Ranking handles GET /ranking
func (h *GameHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RankingFromModel(h.gameController.Ranking()))
}

// History handles GET /history?limit=N
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	q, err := request.ParseHistoryQuery(r)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	results, err := h.gameController.History(r.Context(), q.Limit)
	if err != nil {
		h.logger.Error("failed to list round history", slog.Any("error", err))
		WriteError(w, err)
		return
	}

	total, err := h.gameController.HistoryTotal(r.Context())
	if err != nil {
		h.logger.Error("failed to count round history", slog.Any("error", err))
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryFromModel(results, total))
}

// Events handles GET /events, streaming game events to a spectator
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "Event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	view := h.gameController.CurrentRound()
	initial := h.render(
		model.Event{Type: model.EventRoundStarted, Payload: model.RoundStartedPayload{
			Round: view.Number,
			Min:   view.Range.Min,
			Max:   view.Range.Max,
		}},
		model.Event{Type: model.EventRanking, Payload: model.RankingPayload{Players: h.gameController.Ranking()}},
	)

	sse.ServeSSE(w, r, h.hub, uuid.NewString(), initial)
}

func (h *GameHandler) render(events ...model.Event) []sse.EventData {
	out := make([]sse.EventData, 0, len(events))
	for _, e := range events {
		data, err := h.renderer.RenderEvent(e)
		if err != nil {
			h.logger.Error("sse failed to render event",
				slog.String("event_type", string(e.Type)),
				slog.Any("error", err))
			continue
		}
		out = append(out, data)
	}
	return out
}
