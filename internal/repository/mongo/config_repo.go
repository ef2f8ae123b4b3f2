package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/repository"
)

const configCollectionName = "challenge_config"

// configDocKey pins the singleton: there is exactly one config document.
const configDocKey = "current"

type configDocument struct {
	Key    string                 `bson:"key"`
	Config domain.ChallengeConfig `bson:"config"`
}

// mongoConfigRepository implements repository.ConfigRepository.
type mongoConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoConfigRepository creates a config repository backed by MongoDB.
func NewMongoConfigRepository(db *mongo.Database) repository.ConfigRepository {
	return &mongoConfigRepository{
		collection: db.Collection(configCollectionName),
	}
}

// Get loads the challenge config. ErrNotFound means no config has been
// seeded yet.
func (r *mongoConfigRepository) Get(ctx context.Context) (*domain.ChallengeConfig, error) {
	var doc configDocument
	err := r.collection.FindOne(ctx, bson.M{"key": configDocKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc.Config, nil
}

// Upsert writes the config singleton, bumping its version.
func (r *mongoConfigRepository) Upsert(ctx context.Context, cfg *domain.ChallengeConfig) error {
	cfg.Version++
	cfg.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": configDocument{Key: configDocKey, Config: *cfg}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"key": configDocKey}, update, options.Update().SetUpsert(true))
	return err
}

// EnsureConfigIndexes creates necessary indexes for the config collection.
func EnsureConfigIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
