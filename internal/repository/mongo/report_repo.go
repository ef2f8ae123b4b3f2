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

const reportCollectionName = "season_reports"

// mongoReportRepository implements repository.ReportRepository.
type mongoReportRepository struct {
	collection *mongo.Collection
}

// NewMongoReportRepository creates a report metadata repository backed by
// MongoDB.
func NewMongoReportRepository(db *mongo.Database) repository.ReportRepository {
	return &mongoReportRepository{
		collection: db.Collection(reportCollectionName),
	}
}

// Create inserts report metadata after the CSV landed in object storage.
func (r *mongoReportRepository) Create(ctx context.Context, report *domain.SeasonReport) (primitive.ObjectID, error) {
	if report.ObjectKey == "" || report.GeneratedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("report requires objectKey and generatedBy")
	}

	report.ID = primitive.NewObjectID()
	report.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves report metadata.
func (r *mongoReportRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SeasonReport, error) {
	var report domain.SeasonReport
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// ListRecent returns the newest reports first.
func (r *mongoReportRepository) ListRecent(ctx context.Context, limit int64) ([]domain.SeasonReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []domain.SeasonReport
	if err = cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// EnsureReportIndexes creates necessary indexes for the reports collection.
func EnsureReportIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
