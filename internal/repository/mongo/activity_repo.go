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

const activityCollectionName = "activities"

// mongoActivityRepository implements repository.ActivityRepository.
type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates an activity repository backed by MongoDB.
func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// Upsert inserts or refreshes the (userId, sourceId) record. Re-syncing the
// same tracker activity overwrites the mutable fields but keeps the document
// identity stable, so event participations keep pointing at it.
func (r *mongoActivityRepository) Upsert(ctx context.Context, activity *domain.Activity) (bool, error) {
	if activity.UserID == primitive.NilObjectID || activity.SourceID == "" {
		return false, errors.New("activity requires userId and sourceId")
	}

	now := time.Now().UTC()
	filter := bson.M{"userId": activity.UserID, "sourceId": activity.SourceID}
	update := bson.M{
		"$set": bson.M{
			"name":              activity.Name,
			"sportType":         activity.SportType,
			"startTime":         activity.StartTime,
			"distanceMeters":    activity.DistanceMeters,
			"movingTimeSeconds": activity.MovingTimeSeconds,
			"averageHeartRate":  activity.AverageHeartRate,
			"updatedAt":         now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"userId":    activity.UserID,
			"sourceId":  activity.SourceID,
			"createdAt": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return result.UpsertedCount > 0, nil
}

// GetByID retrieves an activity by its ID.
func (r *mongoActivityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

// ListByUserInRange returns the user's activities with startTime in [from, to),
// oldest first.
func (r *mongoActivityRepository) ListByUserInRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error) {
	filter := bson.M{
		"userId":    userID,
		"startTime": bson.M{"$gte": from, "$lt": to},
	}
	return r.find(ctx, filter)
}

// ListByUser returns every activity of the user, oldest first.
func (r *mongoActivityRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Activity, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoActivityRepository) find(ctx context.Context, filter bson.M) ([]domain.Activity, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var activities []domain.Activity
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// EnsureActivityIndexes creates necessary indexes for the activities
// collection.
func EnsureActivityIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "sourceId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startTime", Value: 1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
