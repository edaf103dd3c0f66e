package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	userKeyPrefix   = "user:id:"
	defaultCacheTTL = 5 * time.Minute
)

// NewRedisClient parses redisURL (redis://host:port/db) and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL cannot be empty")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// UserRepository is a read-through cache over another UserRepository, keyed by user ID.
// Session verification hits GetByID on every authenticated request, so that is the
// only cached read. Writes go to the inner store first and then drop the entry.
//
// Cached entries are the JSON form of domain.User, which omits the password hash;
// credential checks go through GetByEmail and are never served from cache.
type UserRepository struct {
	inner  repository.UserRepository
	client *redis.Client
	ttl    time.Duration
}

func NewUserRepository(inner repository.UserRepository, client *redis.Client, ttl time.Duration) *UserRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &UserRepository{inner: inner, client: client, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return userKeyPrefix + id.String()
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.inner.Create(ctx, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err == nil {
		var user domain.User
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
		log.Printf("WARN [cache.GetByID] dropping undecodable entry for %s", id)
		r.invalidate(ctx, id)
	} else if err != redis.Nil {
		log.Printf("WARN [cache.GetByID] redis get failed: %v", err)
	}

	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		if err := r.client.Set(ctx, userKey(id), data, r.ttl).Err(); err != nil {
			log.Printf("WARN [cache.GetByID] redis set failed: %v", err)
		}
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if err := r.inner.UpdateProfile(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.ID)
	return nil
}

func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if err := r.inner.AddFriend(ctx, userID, friendID); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}

func (r *UserRepository) ListRecommended(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID) ([]*domain.User, error) {
	return r.inner.ListRecommended(ctx, userID, exclude)
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	return r.inner.ListByIDs(ctx, ids)
}

func (r *UserRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, userKey(id)).Err(); err != nil {
		log.Printf("WARN [cache.invalidate] redis del failed for %s: %v", id, err)
	}
}
