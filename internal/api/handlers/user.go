package handlers

import (
	"net/http"

	"github.com/dom/lingo-exchange/internal/api/middleware"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type UserHandler struct {
	friendService *service.FriendService
}

func NewUserHandler(friendService *service.FriendService) *UserHandler {
	return &UserHandler{friendService: friendService}
}

type FriendRequestsResponse struct {
	IncomingReqs []FriendRequestResponse `json:"incomingReqs"`
	AcceptedReqs []FriendRequestResponse `json:"acceptedReqs"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *UserHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.Recommended", service.ErrUnauthorized)
		return
	}

	users, err := h.friendService.RecommendedUsers(r.Context(), user)
	if err != nil {
		respondError(w, "handlers.Recommended", err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponses(users))
}

func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.Friends", service.ErrUnauthorized)
		return
	}

	friends, err := h.friendService.Friends(r.Context(), user)
	if err != nil {
		respondError(w, "handlers.Friends", err)
		return
	}

	respondJSON(w, http.StatusOK, toUserSummaries(friends))
}

func (h *UserHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.SendFriendRequest", service.ErrUnauthorized)
		return
	}

	recipientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid recipient id")
		return
	}

	req, err := h.friendService.SendFriendRequest(r.Context(), user, recipientID)
	if err != nil {
		respondError(w, "handlers.SendFriendRequest", err)
		return
	}

	created := *req
	created.Sender = nil
	created.Recipient = nil
	respondJSON(w, http.StatusCreated, toFriendRequestResponse(&created))
}

func (h *UserHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.AcceptFriendRequest", service.ErrUnauthorized)
		return
	}

	// A malformed id cannot name an existing request.
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "handlers.AcceptFriendRequest", service.ErrFriendRequestNotFound)
		return
	}

	if _, err := h.friendService.AcceptFriendRequest(r.Context(), user, requestID); err != nil {
		respondError(w, "handlers.AcceptFriendRequest", err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

func (h *UserHandler) FriendRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.FriendRequests", service.ErrUnauthorized)
		return
	}

	reqs, err := h.friendService.FriendRequests(r.Context(), user)
	if err != nil {
		respondError(w, "handlers.FriendRequests", err)
		return
	}

	respondJSON(w, http.StatusOK, FriendRequestsResponse{
		IncomingReqs: toFriendRequestResponses(reqs.Incoming),
		AcceptedReqs: toFriendRequestResponses(reqs.Accepted),
	})
}

func (h *UserHandler) OutgoingFriendRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.OutgoingFriendRequests", service.ErrUnauthorized)
		return
	}

	reqs, err := h.friendService.OutgoingFriendRequests(r.Context(), user)
	if err != nil {
		respondError(w, "handlers.OutgoingFriendRequests", err)
		return
	}

	respondJSON(w, http.StatusOK, toFriendRequestResponses(reqs))
}
