package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbackdesk/internal/model"
)

// QuestionRepo handles persistence of the question schema
type QuestionRepo interface {
	// List returns questions by ascending order, ties by creation time
	List(ctx context.Context) ([]model.Question, error)
	GetByID(ctx context.Context, id string) (*model.Question, error)
	Create(ctx context.Context, question *model.Question) error
	// Upsert writes the question under its own ID, replacing any existing one
	Upsert(ctx context.Context, question *model.Question) error
	// Merge sets only the fields present in the patch
	Merge(ctx context.Context, id string, patch model.QuestionPatch) error
	Delete(ctx context.Context, id string) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection(questionsCollection),
	}
}

func (r *questionRepo) List(ctx context.Context) ([]model.Question, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) error {
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, question)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateID
	}
	return err
}

func (r *questionRepo) Upsert(ctx context.Context, question *model.Question) error {
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": question.ID}, question, opts)
	return err
}

func (r *questionRepo) Merge(ctx context.Context, id string, patch model.QuestionPatch) error {
	set := patchFields(patch)
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// patchFields converts the non-nil patch fields to a $set document
func patchFields(p model.QuestionPatch) bson.M {
	set := bson.M{}
	if p.Text != nil {
		set["text"] = *p.Text
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Required != nil {
		set["required"] = *p.Required
	}
	if p.Order != nil {
		set["order"] = *p.Order
	}
	if p.ScaleMax != nil {
		set["scaleMax"] = *p.ScaleMax
	}
	if p.MaxLength != nil {
		set["maxLength"] = *p.MaxLength
	}
	return set
}
