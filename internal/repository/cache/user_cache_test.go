package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/dom/lingo-exchange/internal/repository/cache"
	"github.com/dom/lingo-exchange/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo is an in-memory UserRepository that counts GetByID calls.
type countingRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	gets  int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *countingRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.Friends == nil {
		user.Friends = []uuid.UUID{}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *countingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Friends = append([]uuid.UUID{}, u.Friends...)
	return &u, nil
}

func (r *countingRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *countingRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FullName = user.FullName
	stored.IsOnboarded = user.IsOnboarded
	r.users[user.ID] = stored
	return nil
}

func (r *countingRepo) AddFriend(_ context.Context, userID, friendID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if !stored.HasFriend(friendID) {
		stored.Friends = append(stored.Friends, friendID)
	}
	r.users[userID] = stored
	return nil
}

func (r *countingRepo) ListRecommended(context.Context, uuid.UUID, []uuid.UUID) ([]*domain.User, error) {
	return nil, nil
}

func (r *countingRepo) ListByIDs(context.Context, []uuid.UUID) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

func (r *countingRepo) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func TestUserRepository_ReadThrough(t *testing.T) {
	client := testutil.NewTestRedis(t)
	inner := newCountingRepo()
	repo := cache.NewUserRepository(inner, client, time.Minute)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "ann@example.com", PasswordHash: "hash", FullName: "Ann"}
	require.NoError(t, repo.Create(ctx, user))

	first, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.getCount(), "second read is served from redis")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ann", second.FullName)
	assert.Empty(t, second.PasswordHash, "password hash is never cached")

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_WritesInvalidate(t *testing.T) {
	client := testutil.NewTestRedis(t)
	inner := newCountingRepo()
	repo := cache.NewUserRepository(inner, client, time.Minute)
	ctx := context.Background()

	ann := &domain.User{ID: uuid.New(), Email: "ann@example.com", FullName: "Ann"}
	bob := &domain.User{ID: uuid.New(), Email: "bob@example.com", FullName: "Bob"}
	require.NoError(t, repo.Create(ctx, ann))
	require.NoError(t, repo.Create(ctx, bob))

	_, err := repo.GetByID(ctx, ann.ID)
	require.NoError(t, err)

	t.Run("profile update", func(t *testing.T) {
		update := *ann
		update.FullName = "Ann Lee"
		update.IsOnboarded = true
		require.NoError(t, repo.UpdateProfile(ctx, &update))

		fresh, err := repo.GetByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann Lee", fresh.FullName)
		assert.True(t, fresh.IsOnboarded)
	})

	t.Run("add friend", func(t *testing.T) {
		_, err := repo.GetByID(ctx, ann.ID)
		require.NoError(t, err)

		require.NoError(t, repo.AddFriend(ctx, ann.ID, bob.ID))

		fresh, err := repo.GetByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.True(t, fresh.HasFriend(bob.ID))
	})
}

func TestUserRepository_RedisUnavailable(t *testing.T) {
	client := testutil.NewTestRedis(t)
	inner := newCountingRepo()
	repo := cache.NewUserRepository(inner, client, time.Minute)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "ann@example.com", FullName: "Ann"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, client.Close())

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err, "reads fall back to the inner store")
	assert.Equal(t, user.ID, found.ID)
}
