package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID               string    `bson:"_id"`
	Email            string    `bson:"email"`
	Password         string    `bson:"password,omitempty"`
	FullName         string    `bson:"fullName"`
	Bio              string    `bson:"bio"`
	ProfilePic       string    `bson:"profilePic"`
	NativeLanguage   string    `bson:"nativeLanguage"`
	LearningLanguage string    `bson:"learningLanguage"`
	Location         string    `bson:"location"`
	IsOnboarded      bool      `bson:"isOnboarded"`
	Friends          []string  `bson:"friends"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

var summaryProjection = bson.D{
	{Key: "fullName", Value: 1},
	{Key: "profilePic", Value: 1},
	{Key: "nativeLanguage", Value: 1},
	{Key: "learningLanguage", Value: 1},
}

func toUserDocument(u *domain.User) userDocument {
	friends := make([]string, 0, len(u.Friends))
	for _, f := range u.Friends {
		friends = append(friends, f.String())
	}
	return userDocument{
		ID:               u.ID.String(),
		Email:            u.Email,
		Password:         u.PasswordHash,
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

func (d *userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", d.ID, err)
	}
	friends, err := parseIDs(d.Friends)
	if err != nil {
		return nil, fmt.Errorf("user %q friends: %w", d.ID, err)
	}
	return &domain.User{
		ID:               id,
		Email:            d.Email,
		PasswordHash:     d.Password,
		FullName:         d.FullName,
		Bio:              d.Bio,
		ProfilePic:       d.ProfilePic,
		NativeLanguage:   d.NativeLanguage,
		LearningLanguage: d.LearningLanguage,
		Location:         d.Location,
		IsOnboarded:      d.IsOnboarded,
		Friends:          friends,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

type userRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{users: db.Collection(usersCollection)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Friends == nil {
		user.Friends = []uuid.UUID{}
	}

	_, err := r.users.InsertOne(ctx, toUserDocument(user))
	return translate(err)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID.String()}, bson.M{
		"$set": bson.M{
			"fullName":         user.FullName,
			"bio":              user.Bio,
			"profilePic":       user.ProfilePic,
			"nativeLanguage":   user.NativeLanguage,
			"learningLanguage": user.LearningLanguage,
			"location":         user.Location,
			"isOnboarded":      user.IsOnboarded,
			"updatedAt":        user.UpdatedAt,
		},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{
		"$addToSet": bson.M{"friends": friendID.String()},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) ListRecommended(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID) ([]*domain.User, error) {
	filter := bson.M{
		"$and": bson.A{
			bson.M{"_id": bson.M{"$ne": userID.String()}},
			bson.M{"_id": bson.M{"$nin": idStrings(exclude)}},
			bson.M{"isOnboarded": true},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "fullName", Value: 1}})
	return r.find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}}, opts)
}

func (r *userRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*domain.User, error) {
	cursor, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		u, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
