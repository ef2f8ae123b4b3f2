package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleAdmin   Role = "admin"
)

// Gender selects which monthly targets and default holidays apply to a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ApprovalStatus tracks the admin sign-off on a new registration.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// StravaConnection holds the per-user tracker credentials obtained via OAuth.
// Tokens are refreshed in place by the activity sync.
type StravaConnection struct {
	AthleteID    int64     `bson:"athleteId" json:"athleteId"`
	AccessToken  string    `bson:"accessToken" json:"-"`
	RefreshToken string    `bson:"refreshToken" json:"-"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"-"`
}

// User represents a challenge participant or an administrator.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Gender       Gender             `bson:"gender" json:"gender"`
	Status       ApprovalStatus     `bson:"status" json:"status"`
	Notify       bool               `bson:"notify" json:"notify"` // Push-notification opt-in
	Strava       *StravaConnection  `bson:"strava,omitempty" json:"strava,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}

func (u *User) HasStrava() bool {
	return u.Strava != nil && u.Strava.RefreshToken != ""
}
