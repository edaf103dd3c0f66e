package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/dom/lingo-exchange/internal/repository/postgres"
	"github.com/dom/lingo-exchange/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name: "successful creation",
			user: &domain.User{
				ID:           uuid.New(),
				Email:        "ann@example.com",
				PasswordHash: "hashedpassword",
				FullName:     "Ann",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
		},
		{
			name: "duplicate email",
			user: &domain.User{
				ID:           uuid.New(),
				Email:        "ann@example.com", // Same as above
				PasswordHash: "hashedpassword2",
				FullName:     "Another Ann",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: repository.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			stored, err := repo.GetByEmail(ctx, tt.user.Email)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, stored.ID)
			assert.NotNil(t, stored.Friends)
			assert.Empty(t, stored.Friends)
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, repo)

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, user.PasswordHash, found.PasswordHash)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().NotOnboarded().Build(t, repo)
	originalHash := user.PasswordHash

	domain.OnboardingProfile{
		FullName:         "Ann Lee",
		Bio:              "bio",
		NativeLanguage:   "english",
		LearningLanguage: "german",
		Location:         "Vienna",
	}.Apply(user)
	// Only profile columns are written.
	user.PasswordHash = ""
	user.Email = "changed@example.com"

	require.NoError(t, repo.UpdateProfile(ctx, user))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnboarded)
	assert.Equal(t, "Ann Lee", stored.FullName)
	assert.Equal(t, "german", stored.LearningLanguage)
	assert.Equal(t, originalHash, stored.PasswordHash)
	assert.NotEqual(t, "changed@example.com", stored.Email)

	missing := &domain.User{ID: uuid.New()}
	assert.ErrorIs(t, repo.UpdateProfile(ctx, missing), repository.ErrNotFound)
}

func TestUserRepository_AddFriend(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	ann, _ := testutil.NewUserBuilder().Build(t, repo)
	bob, _ := testutil.NewUserBuilder().Build(t, repo)
	cid, _ := testutil.NewUserBuilder().Build(t, repo)

	require.NoError(t, repo.AddFriend(ctx, ann.ID, bob.ID))
	require.NoError(t, repo.AddFriend(ctx, ann.ID, bob.ID), "adding twice is a no-op")
	require.NoError(t, repo.AddFriend(ctx, ann.ID, cid.ID))

	stored, err := repo.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.ID, cid.ID}, []uuid.UUID(stored.Friends))
	assert.True(t, stored.HasFriend(bob.ID))

	assert.ErrorIs(t, repo.AddFriend(ctx, uuid.New(), bob.ID), repository.ErrNotFound)
}

func TestUserRepository_ListRecommended(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	ann, _ := testutil.NewUserBuilder().Build(t, repo)
	bob, _ := testutil.NewUserBuilder().Build(t, repo)
	cid, _ := testutil.NewUserBuilder().Build(t, repo)
	testutil.NewUserBuilder().NotOnboarded().Build(t, repo)

	tests := []struct {
		name    string
		exclude []uuid.UUID
		want    []uuid.UUID
	}{
		{name: "no friends", exclude: nil, want: []uuid.UUID{bob.ID, cid.ID}},
		{name: "friends excluded", exclude: []uuid.UUID{bob.ID}, want: []uuid.UUID{cid.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.ListRecommended(ctx, ann.ID, tt.exclude)
			require.NoError(t, err)

			ids := make([]uuid.UUID, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestUserRepository_ListByIDs(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	bob, _ := testutil.NewUserBuilder().WithFullName("Bob").Build(t, repo)
	ann, _ := testutil.NewUserBuilder().WithFullName("Ann").Build(t, repo)

	users, err := repo.ListByIDs(ctx, []uuid.UUID{bob.ID, ann.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ann", users[0].FullName)
	assert.Equal(t, "Bob", users[1].FullName)
	assert.Empty(t, users[0].Email, "summary projection")
	assert.Empty(t, users[0].PasswordHash, "summary projection")

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
