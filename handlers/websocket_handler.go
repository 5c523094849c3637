package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/parsix/parsix-backend/live"
	"github.com/parsix/parsix-backend/middleware"
	"github.com/parsix/parsix-backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin from the app frontend; access is
	// gated by the token check in Subscribe, not by origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub               *live.Hub
	tournamentService services.TournamentService
	jwtSecret         string
}

func NewWebSocketHandler(hub *live.Hub, tournamentService services.TournamentService, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournamentService: tournamentService, jwtSecret: jwtSecret}
}

// Subscribe authenticates the request, upgrades the connection, and attaches
// it to the tournament's room. Every standings change in that tournament is
// then pushed to the socket. The browser WebSocket API cannot set an
// Authorization header, so the token is also accepted as a query parameter.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString, _ = middleware.BearerToken(r.Header.Get("Authorization"))
	}
	if tokenString == "" {
		unauthorizedResponse(w, r, "authentication token required")
		return
	}
	userID, err := middleware.TokenUserID(h.jwtSecret, tokenString)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	tournamentID := chi.URLParam(r, "tournamentID")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("tournament id is required"))
		return
	}

	if _, err := h.tournamentService.Get(r.Context(), tournamentID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: tournamentID,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
