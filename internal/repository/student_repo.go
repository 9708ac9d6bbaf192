package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"doubtdesk/internal/model"
)

// StudentRepo reads student profiles. Account management lives with the
// identity provider; this store only resolves ids to display data and
// preferences.
type StudentRepo interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Student, error)
}

type studentRepo struct {
	collection *mongo.Collection
}

// NewStudentRepo creates a Mongo-backed student repository.
func NewStudentRepo(db *mongo.Database) StudentRepo {
	return &studentRepo{
		collection: db.Collection("students"),
	}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	if student.ID == "" {
		student.ID = primitive.NewObjectID().Hex()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, student)
	return err
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Student not found
		}
		return nil, err
	}

	return &student, nil
}

func (r *studentRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Student, error) {
	if len(ids) == 0 {
		return map[string]*model.Student{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var students []*model.Student
	if err = cursor.All(ctx, &students); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	return byID, nil
}
