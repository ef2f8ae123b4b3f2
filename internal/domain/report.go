package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeasonReport records a generated season penalty report archived in object
// storage. The CSV itself lives in S3 under ObjectKey.
type SeasonReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GeneratedBy primitive.ObjectID `bson:"generatedBy" json:"generatedBy"`
	ObjectKey   string             `bson:"objectKey" json:"objectKey"`
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	Athletes    int                `bson:"athletes" json:"athletes"` // Users included
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
