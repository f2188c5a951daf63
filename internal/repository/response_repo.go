package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbackdesk/internal/model"
)

// ResponseRepo is append-only storage for survey responses
type ResponseRepo interface {
	// Append stores one response and assigns its ID and creation time
	Append(ctx context.Context, answers model.AnswerMap) (*model.Response, error)
	// List returns every response, newest first
	List(ctx context.Context) ([]*model.Response, error)
}

type responseRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection(responsesCollection),
		now:        time.Now,
	}
}

// responseDoc mirrors a stored response. Extra collects answers written as
// top-level fields by older clients.
type responseDoc struct {
	ID        interface{}            `bson:"_id"`
	Answers   map[string]interface{} `bson:"answers"`
	CreatedAt time.Time              `bson:"createdAt"`
	Extra     map[string]interface{} `bson:",inline"`
}

func (r *responseRepo) Append(ctx context.Context, answers model.AnswerMap) (*model.Response, error) {
	response := &model.Response{
		ID:        uuid.NewString(),
		Answers:   answers,
		CreatedAt: r.now().UTC(),
	}

	if _, err := r.collection.InsertOne(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (r *responseRepo) List(ctx context.Context) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []responseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	responses := make([]*model.Response, 0, len(docs))
	for _, d := range docs {
		responses = append(responses, d.toModel())
	}
	return responses, nil
}

func (d responseDoc) toModel() *model.Response {
	var id string
	switch v := d.ID.(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	case nil:
	default:
		id = fmt.Sprint(v)
	}

	return &model.Response{
		ID:        id,
		Answers:   d.Answers,
		CreatedAt: d.CreatedAt,
		Legacy:    d.Extra,
	}
}
