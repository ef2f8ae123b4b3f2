package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventParticipation links exactly one of a user's activities to a custom
// event. Created once by explicit user opt-in; at most one per (user, event),
// enforced by a unique index.
type EventParticipation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	EventID    primitive.ObjectID `bson:"eventId" json:"eventId"`
	ActivityID primitive.ObjectID `bson:"activityId" json:"activityId"`
	LinkedAt   time.Time          `bson:"linkedAt" json:"linkedAt"`
}
