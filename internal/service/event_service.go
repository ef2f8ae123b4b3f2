package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/engine"
	"fitkpi/challenge-app/internal/repository"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrNotActivityOwner    = errors.New("activity belongs to another user")
	ErrOutsideEventWindow  = errors.New("activity is outside the event window")
	ErrEventFilterMismatch = errors.New("activity discipline is not covered by the event")
	ErrAlreadyLinked       = errors.New("an activity is already linked to this event")
	ErrInvalidEvent        = errors.New("invalid event")
)

// EventService manages the special-event calendar and explicit activity
// links.
type EventService interface {
	Create(ctx context.Context, event *domain.SpecialEvent, createdBy primitive.ObjectID) (*domain.SpecialEvent, error)
	Update(ctx context.Context, event *domain.SpecialEvent) (*domain.SpecialEvent, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]domain.SpecialEvent, error)
	// LinkActivity ties one of the user's activities to a custom event so the
	// quota bypass applies. One link per (user, event).
	LinkActivity(ctx context.Context, userID, eventID, activityID primitive.ObjectID, loc *time.Location) (*domain.EventParticipation, error)
	ListParticipations(ctx context.Context, userID primitive.ObjectID) ([]domain.EventParticipation, error)
}

type eventService struct {
	eventRepo         repository.EventRepository
	activityRepo      repository.ActivityRepository
	participationRepo repository.ParticipationRepository
	logger            *slog.Logger
}

// NewEventService creates a new instance of eventService.
func NewEventService(eventRepo repository.EventRepository, activityRepo repository.ActivityRepository, participationRepo repository.ParticipationRepository, logger *slog.Logger) EventService {
	return &eventService{
		eventRepo:         eventRepo,
		activityRepo:      activityRepo,
		participationRepo: participationRepo,
		logger:            logger,
	}
}

func (s *eventService) Create(ctx context.Context, event *domain.SpecialEvent, createdBy primitive.ObjectID) (*domain.SpecialEvent, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	event.CreatedBy = createdBy
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	id, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id
	s.logger.Info("event created", "event", id.Hex(), "kind", event.Kind, "name", event.Name)
	return event, nil
}

func (s *eventService) Update(ctx context.Context, event *domain.SpecialEvent) (*domain.SpecialEvent, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	existing, err := s.eventRepo.GetByID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	event.CreatedBy = existing.CreatedBy
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.eventRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

func (s *eventService) List(ctx context.Context) ([]domain.SpecialEvent, error) {
	return s.eventRepo.List(ctx)
}

func (s *eventService) LinkActivity(ctx context.Context, userID, eventID, activityID primitive.ObjectID, loc *time.Location) (*domain.EventParticipation, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if activity.UserID != userID {
		return nil, ErrNotActivityOwner
	}

	day := activity.StartTime.In(loc)
	start := event.Start.In(loc)
	end := event.End.In(loc)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)
	if day.Before(startDay) || day.After(endDay) {
		return nil, ErrOutsideEventWindow
	}

	if !eventCoversClass(event.Filter, engine.Classify(activity.SportType)) {
		return nil, ErrEventFilterMismatch
	}

	participation := &domain.EventParticipation{
		UserID:     userID,
		EventID:    eventID,
		ActivityID: activityID,
		LinkedAt:   time.Now(),
	}
	id, err := s.participationRepo.Create(ctx, participation)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyLinked
		}
		return nil, err
	}
	participation.ID = id
	s.logger.Info("activity linked to event", "user", userID.Hex(), "event", eventID.Hex(), "activity", activityID.Hex())
	return participation, nil
}

func (s *eventService) ListParticipations(ctx context.Context, userID primitive.ObjectID) ([]domain.EventParticipation, error) {
	return s.participationRepo.ListByUser(ctx, userID)
}

func validateEvent(event *domain.SpecialEvent) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if event.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidEvent)
	}
	if event.Kind != domain.EventKindHoliday && event.Kind != domain.EventKindCustom {
		return fmt.Errorf("%w: kind must be holiday or custom", ErrInvalidEvent)
	}
	if event.Kind == domain.EventKindHoliday && event.Key == "" {
		return fmt.Errorf("%w: holiday events need a toggle key", ErrInvalidEvent)
	}
	if event.Start.IsZero() || event.End.IsZero() || event.End.Before(event.Start) {
		return fmt.Errorf("%w: event window is invalid", ErrInvalidEvent)
	}
	switch event.Filter {
	case domain.FilterRun, domain.FilterSwim, domain.FilterBoth:
	default:
		return fmt.Errorf("%w: filter must be run, swim, or both", ErrInvalidEvent)
	}
	switch event.Target {
	case domain.TargetAll, domain.TargetMale, domain.TargetFemale:
	default:
		return fmt.Errorf("%w: target must be all, male, or female", ErrInvalidEvent)
	}
	return nil
}

func eventCoversClass(f domain.ActivityFilter, class engine.ActivityClass) bool {
	switch f {
	case domain.FilterBoth:
		return class == engine.ClassRun || class == engine.ClassSwim
	case domain.FilterRun:
		return class == engine.ClassRun
	case domain.FilterSwim:
		return class == engine.ClassSwim
	}
	return false
}
