package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doubtdesk/internal/model"
)

// DoubtRepo is the durable store for doubts, including the AI lock state.
type DoubtRepo interface {
	Create(ctx context.Context, doubt *model.Doubt) error
	GetByID(ctx context.Context, id string) (*model.Doubt, error)
	GetByClass(ctx context.Context, class string) ([]*model.Doubt, error)
	GetByAuthor(ctx context.Context, authorID string) ([]*model.Doubt, error)

	// FindAwaitingAI returns doubts with no AI answer, not currently locked,
	// created before the cutoff.
	FindAwaitingAI(ctx context.Context, createdBefore time.Time) ([]*model.Doubt, error)

	// TryAcquireAILock atomically sets isProcessingByAI when it is false and
	// no AI answer exists yet. Returns false without error when the lock is
	// already held or the doubt already has an AI answer. This is the sole
	// race-prevention mechanism for AI answering; it must stay a single
	// conditional update.
	TryAcquireAILock(ctx context.Context, id string) (bool, error)
	ReleaseAILock(ctx context.Context, id string) error

	// MarkAIAnswered flips hasAiResponse to true. The caller still owns the
	// lock and releases it separately.
	MarkAIAnswered(ctx context.Context, id string) error
}

type doubtRepo struct {
	collection *mongo.Collection
}

// NewDoubtRepo creates a Mongo-backed doubt repository.
func NewDoubtRepo(db *mongo.Database) DoubtRepo {
	return &doubtRepo{
		collection: db.Collection("doubts"),
	}
}

func (r *doubtRepo) Create(ctx context.Context, doubt *model.Doubt) error {
	if doubt.ID == "" {
		doubt.ID = primitive.NewObjectID().Hex()
	}
	if doubt.CreatedAt.IsZero() {
		doubt.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, doubt)
	return err
}

func (r *doubtRepo) GetByID(ctx context.Context, id string) (*model.Doubt, error) {
	var doubt model.Doubt
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doubt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Doubt not found
		}
		return nil, err
	}

	return &doubt, nil
}

func (r *doubtRepo) GetByClass(ctx context.Context, class string) ([]*model.Doubt, error) {
	return r.find(ctx, bson.M{"class": class})
}

func (r *doubtRepo) GetByAuthor(ctx context.Context, authorID string) ([]*model.Doubt, error) {
	return r.find(ctx, bson.M{"author": authorID})
}

func (r *doubtRepo) FindAwaitingAI(ctx context.Context, createdBefore time.Time) ([]*model.Doubt, error) {
	return r.find(ctx, bson.M{
		"hasAiResponse":    false,
		"isProcessingByAI": false,
		"createdAt":        bson.M{"$lt": createdBefore},
	})
}

// find runs a filtered query, newest first.
func (r *doubtRepo) find(ctx context.Context, filter bson.M) ([]*model.Doubt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doubts []*model.Doubt
	if err = cursor.All(ctx, &doubts); err != nil {
		return nil, err
	}

	return doubts, nil
}

func (r *doubtRepo) TryAcquireAILock(ctx context.Context, id string) (bool, error) {
	// Single conditional round trip: matches only when unlocked and not yet
	// AI-answered, so concurrent dispatchers and on-demand triggers cannot
	// both win.
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isProcessingByAI": false, "hasAiResponse": false},
		bson.M{"$set": bson.M{"isProcessingByAI": true}},
	).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *doubtRepo) ReleaseAILock(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isProcessingByAI": false}},
	)
	return err
}

func (r *doubtRepo) MarkAIAnswered(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"hasAiResponse": true}},
	)
	return err
}
