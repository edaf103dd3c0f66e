// Package chat wraps the hosted chat service that owns conversations. This
// service only mirrors users into it and mints client tokens.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	stream "github.com/GetStream/stream-chat-go/v5"
)

var ErrNotConfigured = errors.New("chat provider is not configured")

type User struct {
	ID    string
	Name  string
	Image string
}

type Provider interface {
	UpsertUser(ctx context.Context, user User) error
	CreateToken(userID string) (string, error)
}

type StreamProvider struct {
	client *stream.Client
}

func NewStreamProvider(apiKey, apiSecret string) (*StreamProvider, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	client, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("create stream client: %w", err)
	}
	return &StreamProvider{client: client}, nil
}

func (p *StreamProvider) UpsertUser(ctx context.Context, user User) error {
	_, err := p.client.UpsertUser(ctx, &stream.User{
		ID:    user.ID,
		Name:  user.Name,
		Image: user.Image,
	})
	return err
}

// CreateToken signs a non-expiring user token; the chat service scopes it to userID.
func (p *StreamProvider) CreateToken(userID string) (string, error) {
	return p.client.CreateToken(userID, time.Time{})
}

// Disabled is used when no provider credentials are configured.
type Disabled struct{}

func (Disabled) UpsertUser(context.Context, User) error { return ErrNotConfigured }

func (Disabled) CreateToken(string) (string, error) { return "", ErrNotConfigured }
