package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a single workout synced from the tracker. Records are treated
// as immutable inputs by the KPI engine; re-syncing upserts by SourceID.
type Activity struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	SourceID string             `bson:"sourceId" json:"sourceId"` // Tracker activity id, unique per user
	Name     string             `bson:"name" json:"name"`
	// SportType is the tracker's free-text classification ("Run", "TrailRun",
	// "VirtualRide", ...). The engine normalizes it by substring match.
	SportType         string    `bson:"sportType" json:"sportType"`
	StartTime         time.Time `bson:"startTime" json:"startTime"`
	DistanceMeters    float64   `bson:"distanceMeters" json:"distanceMeters"`
	MovingTimeSeconds int       `bson:"movingTimeSeconds" json:"movingTimeSeconds"`
	AverageHeartRate  *float64  `bson:"averageHeartRate,omitempty" json:"averageHeartRate,omitempty"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DistanceKm converts the tracker's meter distance to the kilometers every
// target and cap is expressed in.
func (a *Activity) DistanceKm() float64 {
	return a.DistanceMeters / 1000.0
}
