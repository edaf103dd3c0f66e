package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
)

type MessageType string

const (
	// Server to Client
	MessageTypeFriendRequestReceived MessageType = "FRIEND_REQUEST_RECEIVED"
	MessageTypeFriendRequestAccepted MessageType = "FRIEND_REQUEST_ACCEPTED"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Server to Client payloads

type UserSummary struct {
	ID               string `json:"_id"`
	FullName         string `json:"fullName"`
	ProfilePic       string `json:"profilePic"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
}

type FriendRequestInfo struct {
	ID        string       `json:"_id"`
	Sender    *UserSummary `json:"sender"`
	Recipient string       `json:"recipient"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type FriendRequestReceivedPayload struct {
	Request FriendRequestInfo `json:"request"`
}

type FriendRequestAcceptedPayload struct {
	RequestID string       `json:"requestId"`
	Friend    *UserSummary `json:"friend"`
}

func summarize(u *domain.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:               u.ID.String(),
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}
