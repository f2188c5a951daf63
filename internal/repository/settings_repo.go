package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"feedbackdesk/internal/model"
)

// SettingsRepo reads and writes the shared access secret
type SettingsRepo interface {
	// GetAccessPIN returns the stored PIN, or "" when none is stored
	GetAccessPIN(ctx context.Context) (string, error)
	// SetAccessPIN overwrites the stored PIN (last write wins)
	SetAccessPIN(ctx context.Context, pin string) error
}

type settingsRepo struct {
	collection *mongo.Collection
}

// NewSettingsRepo creates a new settings repository
func NewSettingsRepo(db *mongo.Database) SettingsRepo {
	return &settingsRepo{
		collection: db.Collection(settingsCollection),
	}
}

func (r *settingsRepo) GetAccessPIN(ctx context.Context) (string, error) {
	var settings model.AccessSettings
	err := r.collection.FindOne(ctx, bson.M{"_id": accessSettingsID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return settings.PIN, nil
}

func (r *settingsRepo) SetAccessPIN(ctx context.Context, pin string) error {
	opts := options.Replace().SetUpsert(true)
	doc := model.AccessSettings{ID: accessSettingsID, PIN: pin}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": accessSettingsID}, doc, opts)
	return err
}
