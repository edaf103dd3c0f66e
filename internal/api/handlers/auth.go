package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/lingo-exchange/internal/api/middleware"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

type AuthResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		respondError(w, "handlers.Signup", err)
		return
	}

	h.setSessionCookie(w, result.Token)
	respondJSON(w, http.StatusCreated, AuthResponse{Success: true, User: toUserResponse(result.User)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, "handlers.Login", err)
		return
	}

	h.setSessionCookie(w, result.Token)
	respondJSON(w, http.StatusOK, AuthResponse{Success: true, User: toUserResponse(result.User)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, LogoutResponse{Success: true, Message: "Logout successful"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.Me", service.ErrUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{User: toUserResponse(user)})
}

func (h *AuthHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, "handlers.Onboard", service.ErrUnauthorized)
		return
	}

	var req service.OnboardInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.authService.CompleteOnboarding(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, "handlers.Onboard", err)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{Success: true, User: toUserResponse(updated)})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	cookie := h.sessionCookie()
	cookie.Value = token
	cookie.MaxAge = int(h.cfg.SessionTTL.Seconds())
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	cookie := h.sessionCookie()
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

// sessionCookie is HttpOnly everywhere. Production allows cross-site use, which
// browsers only accept together with Secure.
func (h *AuthHandler) sessionCookie() *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.IsProduction() {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}
