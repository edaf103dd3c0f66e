package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/lingo-exchange/internal/api"
	"github.com/dom/lingo-exchange/internal/chat"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/dom/lingo-exchange/internal/repository/cache"
	"github.com/dom/lingo-exchange/internal/repository/mongo"
	"github.com/dom/lingo-exchange/internal/repository/postgres"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/dom/lingo-exchange/internal/websocket"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize store
	repos, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	// Optional user cache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		repos.User = cache.NewUserRepository(repos.User, client, cfg.UserCacheTTL)
		log.Printf("User cache enabled (ttl %s)", cfg.UserCacheTTL)
	}

	chatProvider := newChatProvider(cfg)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, chatProvider, hub, cfg)

	// Initialize router
	router := api.NewRouter(services, hub, cfg)

	// WriteTimeout is left unset so websocket sessions are not cut off.
	srv := &http.Server{
		Addr:        "0.0.0.0:" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (%s store)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("ERROR [main] server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openStore opens the single process-wide store connection.
func openStore(cfg *config.Config) (*repository.Repositories, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := mongo.NewConnection(context.Background(), cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Printf("ERROR [main] failed to disconnect mongo: %v", err)
			}
		}
		return mongo.NewRepositories(db), closeFn, nil

	default:
		logLevel := logger.Info
		if cfg.IsProduction() {
			logLevel = logger.Warn
		}
		db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			sqlDB, err := db.DB()
			if err != nil {
				return
			}
			if err := sqlDB.Close(); err != nil {
				log.Printf("ERROR [main] failed to close database: %v", err)
			}
		}
		return postgres.NewRepositories(db), closeFn, nil
	}
}

func newChatProvider(cfg *config.Config) chat.Provider {
	if cfg.StreamAPIKey == "" || cfg.StreamAPISecret == "" {
		log.Printf("WARN [main] STREAM_API_KEY or STREAM_API_SECRET not set, chat is disabled")
		return chat.Disabled{}
	}

	provider, err := chat.NewStreamProvider(cfg.StreamAPIKey, cfg.StreamAPISecret)
	if err != nil {
		log.Fatalf("failed to create chat provider: %v", err)
	}
	return provider
}
