package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var profileColumns = []string{
	"full_name",
	"bio",
	"profile_pic",
	"native_language",
	"learning_language",
	"location",
	"is_onboarded",
	"updated_at",
}

var summaryColumns = []string{
	"id",
	"full_name",
	"profile_pic",
	"native_language",
	"learning_language",
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Friends == nil {
		user.Friends = datatypes.JSONSlice[uuid.UUID]{}
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(user).
		Select(profileColumns).
		Updates(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	entry := fmt.Sprintf("[%q]", friendID.String())

	// Single statement so the containment check and append are atomic for the row.
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Where("NOT (friends @> ?::jsonb)", entry).
		Update("friends", gorm.Expr("friends || ?::jsonb", entry))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either already a friend or the user is missing.
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return translate(err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListRecommended(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID) ([]*domain.User, error) {
	query := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("is_onboarded = ?", true)
	// NOT IN with an empty list renders as NOT IN (NULL) and matches nothing.
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var users []*domain.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	users := []*domain.User{}
	if len(ids) == 0 {
		return users, nil
	}

	err := r.db.WithContext(ctx).
		Select(summaryColumns).
		Where("id IN ?", ids).
		Order("full_name").
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}
