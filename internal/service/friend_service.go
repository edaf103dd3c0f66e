package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/google/uuid"
)

// Notifier pushes friend request events to connected clients.
type Notifier interface {
	FriendRequestReceived(req *domain.FriendRequest)
	FriendRequestAccepted(req *domain.FriendRequest, recipient *domain.User)
}

type noopNotifier struct{}

func (noopNotifier) FriendRequestReceived(*domain.FriendRequest)               {}
func (noopNotifier) FriendRequestAccepted(*domain.FriendRequest, *domain.User) {}

type FriendService struct {
	userRepo    repository.UserRepository
	requestRepo repository.FriendRequestRepository
	notifier    Notifier
}

func NewFriendService(userRepo repository.UserRepository, requestRepo repository.FriendRequestRepository, notifier Notifier) *FriendService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &FriendService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		notifier:    notifier,
	}
}

// FriendRequests groups what the caller needs to act on with what the caller sent that was accepted.
type FriendRequests struct {
	Incoming []*domain.FriendRequest
	Accepted []*domain.FriendRequest
}

// RecommendedUsers returns onboarded users that are neither the caller nor already friends.
func (s *FriendService) RecommendedUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	users, err := s.userRepo.ListRecommended(ctx, caller.ID, caller.Friends)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *FriendService) Friends(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	return s.userRepo.ListByIDs(ctx, caller.Friends)
}

func (s *FriendService) SendFriendRequest(ctx context.Context, caller *domain.User, recipientID uuid.UUID) (*domain.FriendRequest, error) {
	if caller.ID == recipientID {
		return nil, ErrSelfRequest
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	if recipient.HasFriend(caller.ID) {
		return nil, ErrAlreadyFriends
	}

	_, err = s.requestRepo.FindBetween(ctx, caller.ID, recipientID)
	if err == nil {
		return nil, ErrDuplicateRequest
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	req := &domain.FriendRequest{
		ID:          uuid.New(),
		SenderID:    caller.ID,
		RecipientID: recipientID,
		Status:      domain.FriendRequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	req.Sender = caller
	req.Recipient = recipient
	s.notifier.FriendRequestReceived(req)

	return req, nil
}

// AcceptFriendRequest links both users. The two friend list writes are separate and
// idempotent, so accepting an already accepted request repairs a half-applied accept.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, caller *domain.User, requestID uuid.UUID) (*domain.FriendRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, err
	}

	if req.RecipientID != caller.ID {
		return nil, ErrNotRequestRecipient
	}

	wasPending := req.Status == domain.FriendRequestPending
	if wasPending {
		if err := s.requestRepo.MarkAccepted(ctx, req.ID); err != nil {
			return nil, err
		}
		req.Status = domain.FriendRequestAccepted
	}

	if err := s.userRepo.AddFriend(ctx, req.SenderID, req.RecipientID); err != nil {
		return nil, err
	}
	if err := s.userRepo.AddFriend(ctx, req.RecipientID, req.SenderID); err != nil {
		log.Printf("ERROR [friend.AcceptFriendRequest] request %s linked sender but not recipient: %v", req.ID, err)
		return nil, err
	}

	if wasPending {
		s.notifier.FriendRequestAccepted(req, caller)
	}

	return req, nil
}

func (s *FriendService) FriendRequests(ctx context.Context, caller *domain.User) (*FriendRequests, error) {
	incoming, err := s.requestRepo.ListIncoming(ctx, caller.ID, domain.FriendRequestPending)
	if err != nil {
		return nil, err
	}

	accepted, err := s.requestRepo.ListOutgoing(ctx, caller.ID, domain.FriendRequestAccepted)
	if err != nil {
		return nil, err
	}

	return &FriendRequests{Incoming: incoming, Accepted: accepted}, nil
}

func (s *FriendService) OutgoingFriendRequests(ctx context.Context, caller *domain.User) ([]*domain.FriendRequest, error) {
	return s.requestRepo.ListOutgoing(ctx, caller.ID, domain.FriendRequestPending)
}
