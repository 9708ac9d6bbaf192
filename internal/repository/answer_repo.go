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

// AnswerRepo stores answers. Answers are append-only; there is no update or
// delete path.
type AnswerRepo interface {
	Create(ctx context.Context, answer *model.Answer) error
	GetByDoubtIDs(ctx context.Context, doubtIDs []string) (map[string][]*model.Answer, error)

	// ExistsForDoubt reports whether any answer has been recorded for the
	// doubt. The dispatcher uses it after acquiring the lock so human
	// answers keep priority.
	ExistsForDoubt(ctx context.Context, doubtID string) (bool, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates a Mongo-backed answer repository.
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	return &answerRepo{
		collection: db.Collection("answers"),
	}
}

func (r *answerRepo) Create(ctx context.Context, answer *model.Answer) error {
	if answer.ID == "" {
		answer.ID = primitive.NewObjectID().Hex()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, answer)
	return err
}

func (r *answerRepo) GetByDoubtIDs(ctx context.Context, doubtIDs []string) (map[string][]*model.Answer, error) {
	if len(doubtIDs) == 0 {
		return map[string][]*model.Answer{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"doubt": bson.M{"$in": doubtIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err = cursor.All(ctx, &answers); err != nil {
		return nil, err
	}

	byDoubt := make(map[string][]*model.Answer, len(doubtIDs))
	for _, a := range answers {
		byDoubt[a.DoubtID] = append(byDoubt[a.DoubtID], a)
	}

	return byDoubt, nil
}

func (r *answerRepo) ExistsForDoubt(ctx context.Context, doubtID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"doubt": doubtID}).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
