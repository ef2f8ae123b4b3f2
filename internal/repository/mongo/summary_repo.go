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

const summaryCollectionName = "monthly_summaries"

// mongoSummaryRepository implements repository.SummaryRepository.
type mongoSummaryRepository struct {
	collection *mongo.Collection
}

// NewMongoSummaryRepository creates a summary cache repository backed by
// MongoDB.
func NewMongoSummaryRepository(db *mongo.Database) repository.SummaryRepository {
	return &mongoSummaryRepository{
		collection: db.Collection(summaryCollectionName),
	}
}

// Get loads the cached summary for one user and month.
func (r *mongoSummaryRepository) Get(ctx context.Context, userID primitive.ObjectID, monthKey string) (*domain.MonthlySummary, error) {
	var summary domain.MonthlySummary
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "monthKey": monthKey}).Decode(&summary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// Upsert writes the cache entry for one user and month.
func (r *mongoSummaryRepository) Upsert(ctx context.Context, summary *domain.MonthlySummary) error {
	summary.ComputedAt = time.Now().UTC()

	filter := bson.M{"userId": summary.UserID, "monthKey": summary.MonthKey}
	update := bson.M{
		"$set": bson.M{
			"activityHash": summary.ActivityHash,
			"summary":      summary.Summary,
			"computedAt":   summary.ComputedAt,
		},
		"$setOnInsert": bson.M{
			"_id":      primitive.NewObjectID(),
			"userId":   summary.UserID,
			"monthKey": summary.MonthKey,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// EnsureSummaryIndexes creates necessary indexes for the summaries
// collection.
func EnsureSummaryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "monthKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
