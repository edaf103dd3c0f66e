package domain

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
)

// FriendRequest moves pending -> accepted exactly once; there is no way back.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SenderID    uuid.UUID           `json:"senderId" gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID           `json:"recipientId" gorm:"type:uuid;not null;index"`
	Status      FriendRequestStatus `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`

	// Relations
	Sender    *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Recipient *User `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}
