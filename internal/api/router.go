package api

import (
	"net/http"

	"github.com/dom/lingo-exchange/internal/api/handlers"
	"github.com/dom/lingo-exchange/internal/api/middleware"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/dom/lingo-exchange/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, cfg)
	userHandler := handlers.NewUserHandler(services.Friend)
	chatHandler := handlers.NewChatHandler(services.Chat)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.FrontendURL)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/onboard", authHandler.Onboard)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Route("/users", func(r chi.Router) {
				r.Get("/recommended", userHandler.Recommended)
				r.Get("/friends", userHandler.Friends)
				r.Get("/friend-requests", userHandler.FriendRequests)
				r.Get("/outgoing-requests", userHandler.OutgoingFriendRequests)
				r.Post("/send-friend-request/{id}", userHandler.SendFriendRequest)
				r.Post("/accept-friend-request/{id}", userHandler.AcceptFriendRequest)
			})

			r.Get("/chat/token", chatHandler.Token)

			r.Get("/ws", wsHandler.Handle)
		})
	})

	return r
}
