package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/service"
)

type ErrorResponse struct {
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR [handlers.respondJSON] failed to encode response: %v", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Message: message})
}

// respondError maps service errors to HTTP statuses. Unknown errors are logged
// and reported as a generic 500.
func respondError(w http.ResponseWriter, op string, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Message:       validationErr.Message,
			MissingFields: validationErr.MissingFields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrNotRequestRecipient):
		respondMessage(w, http.StatusForbidden, "You are not authorized to accept this request")
	case errors.Is(err, service.ErrUserNotFound):
		respondMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrRecipientNotFound):
		respondMessage(w, http.StatusNotFound, "Recipient not found")
	case errors.Is(err, service.ErrFriendRequestNotFound):
		respondMessage(w, http.StatusNotFound, "Friend request not found")
	case errors.Is(err, service.ErrEmailExists):
		respondMessage(w, http.StatusBadRequest, "Email already exists, please use a different one")
	case errors.Is(err, service.ErrSelfRequest):
		respondMessage(w, http.StatusBadRequest, "You can't send friend request to yourself")
	case errors.Is(err, service.ErrAlreadyFriends):
		respondMessage(w, http.StatusBadRequest, "You are already friends with this user")
	case errors.Is(err, service.ErrDuplicateRequest):
		respondMessage(w, http.StatusBadRequest, "A friend request already exists between you and this user")
	default:
		log.Printf("ERROR [%s] %v", op, err)
		respondMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

type UserResponse struct {
	ID               string    `json:"_id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	Bio              string    `json:"bio"`
	ProfilePic       string    `json:"profilePic"`
	NativeLanguage   string    `json:"nativeLanguage"`
	LearningLanguage string    `json:"learningLanguage"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"isOnboarded"`
	Friends          []string  `json:"friends"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type UserSummaryResponse struct {
	ID               string `json:"_id"`
	FullName         string `json:"fullName"`
	ProfilePic       string `json:"profilePic"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
}

// FriendRequestResponse carries the populated side as an object and the other side as an id.
type FriendRequestResponse struct {
	ID        string      `json:"_id"`
	Sender    interface{} `json:"sender"`
	Recipient interface{} `json:"recipient"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	friends := make([]string, 0, len(u.Friends))
	for _, id := range u.Friends {
		friends = append(friends, id.String())
	}
	return UserResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		FullName:         u.FullName,
		Bio:              u.Bio,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
		IsOnboarded:      u.IsOnboarded,
		Friends:          friends,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toUserSummary(u *domain.User) UserSummaryResponse {
	return UserSummaryResponse{
		ID:               u.ID.String(),
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

func toUserSummaries(users []*domain.User) []UserSummaryResponse {
	out := make([]UserSummaryResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	return out
}

func toFriendRequestResponse(req *domain.FriendRequest) FriendRequestResponse {
	resp := FriendRequestResponse{
		ID:        req.ID.String(),
		Sender:    req.SenderID.String(),
		Recipient: req.RecipientID.String(),
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
	if req.Sender != nil {
		resp.Sender = toUserSummary(req.Sender)
	}
	if req.Recipient != nil {
		resp.Recipient = toUserSummary(req.Recipient)
	}
	return resp
}

func toFriendRequestResponses(reqs []*domain.FriendRequest) []FriendRequestResponse {
	out := make([]FriendRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toFriendRequestResponse(req))
	}
	return out
}
