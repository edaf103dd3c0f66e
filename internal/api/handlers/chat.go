package handlers

import (
	"net/http"

	"github.com/dom/lingo-exchange/internal/api/middleware"
	"github.com/dom/lingo-exchange/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatTokenResponse struct {
	Token string `json:"token"`
}

func (h *ChatHandler) Token(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.ChatToken", service.ErrUnauthorized)
		return
	}

	token, err := h.chatService.IssueToken(r.Context(), user.ID)
	if err != nil {
		respondError(w, "handlers.ChatToken", err)
		return
	}

	respondJSON(w, http.StatusOK, ChatTokenResponse{Token: token})
}
