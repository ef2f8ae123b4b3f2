package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/engine"
	"fitkpi/challenge-app/internal/observability"
	"fitkpi/challenge-app/internal/repository"
	"fitkpi/challenge-app/internal/strava"
)

var (
	ErrStravaNotConnected = errors.New("strava account not connected")
	ErrStravaExchange     = errors.New("strava token exchange failed")
)

// syncPageSize is the Strava list page size; 200 is the API maximum.
const syncPageSize = 200

// SyncResult reports what one on-demand sync pulled in.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// ActivityService handles the Strava link and on-demand activity sync.
type ActivityService interface {
	// ConnectURL returns the Strava consent page URL for the user.
	ConnectURL(userID primitive.ObjectID) string
	// HandleCallback exchanges the OAuth code and stores the connection.
	HandleCallback(ctx context.Context, userID primitive.ObjectID, code string) error
	// Sync pulls the user's activities in [after, before) into the store.
	Sync(ctx context.Context, userID primitive.ObjectID, after, before time.Time) (*SyncResult, error)
	// ListMonth returns the user's stored activities for one calendar month.
	ListMonth(ctx context.Context, userID primitive.ObjectID, year int, month time.Month, loc *time.Location) ([]domain.Activity, error)
}

type activityService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	strava       *strava.Client
	logger       *slog.Logger
}

// NewActivityService creates a new instance of activityService.
func NewActivityService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, stravaClient *strava.Client, logger *slog.Logger) ActivityService {
	return &activityService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		strava:       stravaClient,
		logger:       logger,
	}
}

func (s *activityService) ConnectURL(userID primitive.ObjectID) string {
	// The user ID rides in the state parameter and is verified against the
	// authenticated session on callback.
	return s.strava.AuthCodeURL(userID.Hex())
}

func (s *activityService) HandleCallback(ctx context.Context, userID primitive.ObjectID, code string) error {
	tok, err := s.strava.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStravaExchange, err)
	}
	athlete, err := s.strava.GetAthlete(ctx, tok)
	if err != nil {
		return fmt.Errorf("fetch strava athlete: %w", err)
	}

	conn := &domain.StravaConnection{
		AthleteID:    athlete.ID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if err := s.userRepo.UpdateStrava(ctx, userID, conn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("strava connected", "user", userID.Hex(), "athlete", athlete.ID)
	return nil
}

// Sync fetches every activity page in the window and upserts each record.
// Re-syncing an overlapping window is safe: the (user, source) key makes the
// upsert idempotent, and edits made on Strava overwrite the stored copy.
func (s *activityService) Sync(ctx context.Context, userID primitive.ObjectID, after, before time.Time) (*SyncResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.HasStrava() {
		return nil, ErrStravaNotConnected
	}

	tok, err := s.freshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for page := 1; ; page++ {
		batch, err := s.strava.ListActivities(ctx, tok, after, before, page, syncPageSize)
		if err != nil {
			return nil, fmt.Errorf("list strava activities: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		result.Fetched += len(batch)

		for i := range batch {
			activity, err := toDomainActivity(userID, &batch[i])
			if err != nil {
				s.logger.Warn("skipping unparseable activity", "user", userID.Hex(), "source", batch[i].ID, "error", err)
				continue
			}
			inserted, err := s.activityRepo.Upsert(ctx, activity)
			if err != nil {
				return nil, fmt.Errorf("store activity %s: %w", activity.SourceID, err)
			}
			if inserted {
				result.Inserted++
			} else {
				result.Updated++
			}
		}
		if len(batch) < syncPageSize {
			break
		}
	}

	observability.RecordSync(result.Inserted, result.Updated)
	s.logger.Info("strava sync complete",
		"user", userID.Hex(),
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"updated", result.Updated,
	)
	return result, nil
}

func (s *activityService) ListMonth(ctx context.Context, userID primitive.ObjectID, year int, month time.Month, loc *time.Location) ([]domain.Activity, error) {
	from, to := engine.MonthRange(year, month, loc)
	return s.activityRepo.ListByUserInRange(ctx, userID, from, to)
}

// freshToken refreshes the stored token when it is expired or close to it.
// Strava rotates refresh tokens, so a successful refresh is persisted before
// use.
func (s *activityService) freshToken(ctx context.Context, user *domain.User) (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  user.Strava.AccessToken,
		RefreshToken: user.Strava.RefreshToken,
		Expiry:       user.Strava.ExpiresAt,
	}
	if tok.Valid() {
		return tok, nil
	}

	refreshed, err := s.strava.Refresh(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("refresh strava token: %w", err)
	}
	conn := &domain.StravaConnection{
		AthleteID:    user.Strava.AthleteID,
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		ExpiresAt:    refreshed.Expiry,
	}
	if err := s.userRepo.UpdateStrava(ctx, user.ID, conn); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}
	user.Strava = conn
	return refreshed, nil
}

// toDomainActivity maps one Strava record into the stored shape. Heart rate
// stays a pointer: absence and zero are different things to the validator.
func toDomainActivity(userID primitive.ObjectID, a *strava.Activity) (*domain.Activity, error) {
	start, err := a.StartTime()
	if err != nil {
		return nil, fmt.Errorf("parse start date %q: %w", a.StartDate, err)
	}
	var hr *float64
	if a.HasHeartRate && a.AverageHeartRate != nil {
		v := *a.AverageHeartRate
		hr = &v
	}
	return &domain.Activity{
		UserID:            userID,
		SourceID:          strconv.FormatInt(a.ID, 10),
		Name:              a.Name,
		SportType:         a.SportType,
		StartTime:         start,
		DistanceMeters:    a.Distance,
		MovingTimeSeconds: a.MovingTime,
		AverageHeartRate:  hr,
	}, nil
}
