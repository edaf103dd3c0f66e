package service

import (
	"github.com/dom/lingo-exchange/internal/chat"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/repository"
)

type Services struct {
	Auth   *AuthService
	Friend *FriendService
	Chat   *ChatService
}

func NewServices(repos *repository.Repositories, chatProvider chat.Provider, notifier Notifier, cfg *config.Config) *Services {
	return &Services{
		Auth:   NewAuthService(repos.User, chatProvider, cfg),
		Friend: NewFriendService(repos.User, repos.FriendRequest, notifier),
		Chat:   NewChatService(chatProvider),
	}
}
