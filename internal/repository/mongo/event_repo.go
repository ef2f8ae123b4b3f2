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

const eventCollectionName = "special_events"

// mongoEventRepository implements repository.EventRepository.
type mongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates an event repository backed by MongoDB.
func NewMongoEventRepository(db *mongo.Database) repository.EventRepository {
	return &mongoEventRepository{
		collection: db.Collection(eventCollectionName),
	}
}

// Create inserts a new special event.
func (r *mongoEventRepository) Create(ctx context.Context, event *domain.SpecialEvent) (primitive.ObjectID, error) {
	if event.Name == "" || event.Start.IsZero() || event.End.IsZero() {
		return primitive.NilObjectID, errors.New("event requires name, start, and end")
	}

	event.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, event)
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

// GetByID retrieves one event.
func (r *mongoEventRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SpecialEvent, error) {
	var event domain.SpecialEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// List returns all events ordered by start date. The full list is small
// (a handful of holidays plus custom events per season), so no paging.
func (r *mongoEventRepository) List(ctx context.Context) ([]domain.SpecialEvent, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.SpecialEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Update replaces the mutable fields of an event.
func (r *mongoEventRepository) Update(ctx context.Context, event *domain.SpecialEvent) error {
	update := bson.M{"$set": bson.M{
		"name":      event.Name,
		"start":     event.Start,
		"end":       event.End,
		"filter":    event.Filter,
		"target":    event.Target,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": event.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an event.
func (r *mongoEventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEventIndexes creates necessary indexes for the events collection.
func EnsureEventIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
