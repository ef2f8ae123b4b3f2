package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventKind distinguishes recurring holidays from one-off custom events.
type EventKind string

const (
	// EventKindHoliday applies automatically to every matching user on the
	// covered days unless disabled via the config toggle for its Key.
	EventKindHoliday EventKind = "holiday"
	// EventKindCustom applies only to activities explicitly linked through an
	// EventParticipation.
	EventKindCustom EventKind = "custom"
)

// ActivityFilter restricts which disciplines an event covers.
type ActivityFilter string

const (
	FilterRun  ActivityFilter = "run"
	FilterSwim ActivityFilter = "swim"
	FilterBoth ActivityFilter = "both"
)

// GenderTarget restricts which users an event applies to.
type GenderTarget string

const (
	TargetAll    GenderTarget = "all"
	TargetMale   GenderTarget = "male"
	TargetFemale GenderTarget = "female"
)

// SpecialEvent is a named inclusive date window during which covered
// activities bypass the daily quota. Holiday windows are entered with concrete
// dates each season (lunar-calendar holidays shift year to year), so the
// engine only ever sees resolved windows.
type SpecialEvent struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind   EventKind          `bson:"kind" json:"kind"`
	Key    string             `bson:"key,omitempty" json:"key,omitempty"` // Toggle key, holidays only
	Name   string             `bson:"name" json:"name"`
	Start  time.Time          `bson:"start" json:"start"` // Inclusive, date precision
	End    time.Time          `bson:"end" json:"end"`     // Inclusive, date precision
	Filter ActivityFilter     `bson:"filter" json:"filter"`
	Target GenderTarget       `bson:"target" json:"target"`
	// CreatedBy is set for custom events (charity runs, competitions).
	CreatedBy primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AppliesToGender reports whether the event's gender target matches the user.
func (e *SpecialEvent) AppliesToGender(g Gender) bool {
	switch e.Target {
	case TargetAll, "":
		return true
	case TargetMale:
		return g == GenderMale
	case TargetFemale:
		return g == GenderFemale
	}
	return false
}
