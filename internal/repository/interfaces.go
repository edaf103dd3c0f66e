package repository

import (
	"context"
	"errors"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile writes the onboarding profile columns only.
	UpdateProfile(ctx context.Context, user *domain.User) error
	// AddFriend appends friendID to the user's friend list unless already present.
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListRecommended(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID) ([]*domain.User, error)
	// ListByIDs returns the summary projection (id, name, avatar, languages).
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}

type FriendRequestRepository interface {
	Create(ctx context.Context, req *domain.FriendRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error)
	// FindBetween returns any request between a and b regardless of direction or status.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*domain.FriendRequest, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
	ListIncoming(ctx context.Context, recipientID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error)
	ListOutgoing(ctx context.Context, senderID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error)
}

type Repositories struct {
	User          UserRepository
	FriendRequest FriendRequestRepository
}
