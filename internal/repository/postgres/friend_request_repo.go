package postgres

import (
	"context"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type friendRequestRepository struct {
	db *gorm.DB
}

func NewFriendRequestRepository(db *gorm.DB) *friendRequestRepository {
	return &friendRequestRepository{db: db}
}

func selectSummary(db *gorm.DB) *gorm.DB {
	return db.Select(summaryColumns)
}

func (r *friendRequestRepository) Create(ctx context.Context, req *domain.FriendRequest) error {
	return translate(r.db.WithContext(ctx).Omit("Sender", "Recipient").Create(req).Error)
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	var req domain.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*domain.FriendRequest, error) {
	var req domain.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at").
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *friendRequestRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Model(&domain.FriendRequest{}).
		Where("id = ? AND status = ?", id, domain.FriendRequestPending).
		Update("status", domain.FriendRequestAccepted).Error)
}

func (r *friendRequestRepository) ListIncoming(ctx context.Context, recipientID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	reqs := []*domain.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Sender", selectSummary).
		Where("recipient_id = ? AND status = ?", recipientID, status).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (r *friendRequestRepository) ListOutgoing(ctx context.Context, senderID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	reqs := []*domain.FriendRequest{}
	err := r.db.WithContext(ctx).
		Preload("Recipient", selectSummary).
		Where("sender_id = ? AND status = ?", senderID, status).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}
