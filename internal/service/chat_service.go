package service

import (
	"context"
	"fmt"

	"github.com/dom/lingo-exchange/internal/chat"
	"github.com/google/uuid"
)

type ChatService struct {
	provider chat.Provider
}

func NewChatService(provider chat.Provider) *ChatService {
	return &ChatService{provider: provider}
}

// IssueToken mints a chat-provider token for the user. Nothing is stored locally.
func (s *ChatService) IssueToken(_ context.Context, userID uuid.UUID) (string, error) {
	token, err := s.provider.CreateToken(userID.String())
	if err != nil {
		return "", fmt.Errorf("create chat token: %w", err)
	}
	return token, nil
}
