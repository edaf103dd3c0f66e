package handlers

import (
	"log"
	"net/http"

	"github.com/dom/lingo-exchange/internal/api/middleware"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/dom/lingo-exchange/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, frontendURL string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == frontendURL
			},
		},
	}
}

// Handle upgrades an authenticated request. Session auth runs before this handler.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.WebSocket", service.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR [handlers.WebSocket] upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
