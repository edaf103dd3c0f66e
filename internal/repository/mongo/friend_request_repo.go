package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type friendRequestDocument struct {
	ID        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Recipient string    `bson:"recipient"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *friendRequestDocument) toDomain() (*domain.FriendRequest, error) {
	ids, err := parseIDs([]string{d.ID, d.Sender, d.Recipient})
	if err != nil {
		return nil, fmt.Errorf("friend request %q: %w", d.ID, err)
	}
	return &domain.FriendRequest{
		ID:          ids[0],
		SenderID:    ids[1],
		RecipientID: ids[2],
		Status:      domain.FriendRequestStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type friendRequestRepository struct {
	requests *mongo.Collection
	users    *userRepository
}

// NewFriendRequestRepository needs the user repository to populate sender/recipient summaries.
func NewFriendRequestRepository(db *mongo.Database, users *userRepository) *friendRequestRepository {
	return &friendRequestRepository{
		requests: db.Collection(friendRequestsCollection),
		users:    users,
	}
}

func (r *friendRequestRepository) Create(ctx context.Context, req *domain.FriendRequest) error {
	now := time.Now().UTC()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = domain.FriendRequestPending
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.requests.InsertOne(ctx, friendRequestDocument{
		ID:        req.ID.String(),
		Sender:    req.SenderID.String(),
		Recipient: req.RecipientID.String(),
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	})
	return translate(err)
}

func (r *friendRequestRepository) findOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*domain.FriendRequest, error) {
	var doc friendRequestDocument
	if err := r.requests.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func (r *friendRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *friendRequestRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*domain.FriendRequest, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender": a.String(), "recipient": b.String()},
			bson.M{"sender": b.String(), "recipient": a.String()},
		},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *friendRequestRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	_, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id.String(), "status": string(domain.FriendRequestPending)},
		bson.M{"$set": bson.M{
			"status":    string(domain.FriendRequestAccepted),
			"updatedAt": time.Now().UTC(),
		}},
	)
	return translate(err)
}

func (r *friendRequestRepository) ListIncoming(ctx context.Context, recipientID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	reqs, err := r.list(ctx, bson.M{"recipient": recipientID.String(), "status": string(status)})
	if err != nil {
		return nil, err
	}

	senders := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		senders = append(senders, req.SenderID)
	}
	summaries, err := r.summaries(ctx, senders)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		req.Sender = summaries[req.SenderID]
	}
	return reqs, nil
}

func (r *friendRequestRepository) ListOutgoing(ctx context.Context, senderID uuid.UUID, status domain.FriendRequestStatus) ([]*domain.FriendRequest, error) {
	reqs, err := r.list(ctx, bson.M{"sender": senderID.String(), "status": string(status)})
	if err != nil {
		return nil, err
	}

	recipients := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		recipients = append(recipients, req.RecipientID)
	}
	summaries, err := r.summaries(ctx, recipients)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		req.Recipient = summaries[req.RecipientID]
	}
	return reqs, nil
}

func (r *friendRequestRepository) list(ctx context.Context, filter bson.M) ([]*domain.FriendRequest, error) {
	cursor, err := r.requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, translate(err)
	}

	var docs []friendRequestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	reqs := make([]*domain.FriendRequest, 0, len(docs))
	for i := range docs {
		req, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (r *friendRequestRepository) summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	users, err := r.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
