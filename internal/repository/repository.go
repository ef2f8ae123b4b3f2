package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("already exists")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListAthletes(ctx context.Context, status domain.ApprovalStatus) ([]domain.User, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ApprovalStatus) error
	UpdateStrava(ctx context.Context, id primitive.ObjectID, conn *domain.StravaConnection) error
	SetNotify(ctx context.Context, id primitive.ObjectID, notify bool) error
}

// ActivityRepository stores synced tracker activities.
type ActivityRepository interface {
	// Upsert inserts the activity or refreshes an existing (userId, sourceId)
	// record. It reports whether a new document was inserted.
	Upsert(ctx context.Context, activity *domain.Activity) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error)
	// ListByUserInRange returns activities with startTime in [from, to).
	ListByUserInRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Activity, error)
}

// EventRepository stores special events and default holidays.
type EventRepository interface {
	Create(ctx context.Context, event *domain.SpecialEvent) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SpecialEvent, error)
	List(ctx context.Context) ([]domain.SpecialEvent, error)
	Update(ctx context.Context, event *domain.SpecialEvent) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ParticipationRepository stores explicit activity-to-event links.
type ParticipationRepository interface {
	// Create fails with ErrDuplicate when the (user, event) pair is already
	// linked; the unique index enforces at most one participation per pair.
	Create(ctx context.Context, p *domain.EventParticipation) (primitive.ObjectID, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.EventParticipation, error)
}

// ConfigRepository stores the challenge config singleton.
type ConfigRepository interface {
	Get(ctx context.Context) (*domain.ChallengeConfig, error)
	// Upsert writes the config, bumping its version.
	Upsert(ctx context.Context, cfg *domain.ChallengeConfig) error
}

// SummaryRepository caches computed monthly summaries.
type SummaryRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID, monthKey string) (*domain.MonthlySummary, error)
	Upsert(ctx context.Context, summary *domain.MonthlySummary) error
}

// ReportRepository stores season report metadata.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.SeasonReport) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SeasonReport, error)
	ListRecent(ctx context.Context, limit int64) ([]domain.SeasonReport, error)
}
