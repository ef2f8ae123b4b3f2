package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/repository"
)

const participationCollectionName = "event_participations"

// mongoParticipationRepository implements repository.ParticipationRepository.
type mongoParticipationRepository struct {
	collection *mongo.Collection
}

// NewMongoParticipationRepository creates a participation repository backed
// by MongoDB.
func NewMongoParticipationRepository(db *mongo.Database) repository.ParticipationRepository {
	return &mongoParticipationRepository{
		collection: db.Collection(participationCollectionName),
	}
}

// Create links one activity to one event. The unique (userId, eventId) index
// turns a second link attempt into ErrDuplicate.
func (r *mongoParticipationRepository) Create(ctx context.Context, p *domain.EventParticipation) (primitive.ObjectID, error) {
	if p.UserID == primitive.NilObjectID || p.EventID == primitive.NilObjectID || p.ActivityID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("participation requires userId, eventId, and activityId")
	}

	p.ID = primitive.NewObjectID()
	p.LinkedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// ListByUser returns the user's participations.
func (r *mongoParticipationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.EventParticipation, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participations []domain.EventParticipation
	if err = cursor.All(ctx, &participations); err != nil {
		return nil, err
	}
	return participations, nil
}

// EnsureParticipationIndexes creates necessary indexes for the
// participations collection.
func EnsureParticipationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "activityId", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
