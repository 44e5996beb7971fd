package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/bracket-engine/realtime"
	"github.com/Dosada05/bracket-engine/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Deployments front this service with a proxy that enforces
		// Origin; the engine itself accepts any.
		return true
	},
}

type WebSocketHandler struct {
	hub    *realtime.Hub
	engine services.TournamentEngine
	logger *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, engine services.TournamentEngine, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, engine: engine, logger: logger}
}

// ServeWS subscribes the caller to the live event stream of one bracket.
// Clients connect to /ws/brackets/{bracketID}.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	bracketID := chi.URLParam(r, "bracketID")
	if bracketID == "" {
		errorResponse(w, http.StatusBadRequest, "missing bracketID")
		return
	}

	if _, err := h.engine.GetBracket(r.Context(), bracketID); err != nil {
		mapServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("bracket_id", bracketID), slog.Any("error", err))
		return
	}
	h.hub.Subscribe(conn, bracketID)
}
