package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/engine"
	"fitkpi/challenge-app/internal/observability"
	"fitkpi/challenge-app/internal/repository"
)

var (
	ErrConfigNotFound = errors.New("challenge config not found")
	ErrInvalidConfig  = errors.New("invalid challenge config")
)

// rosterConcurrency bounds parallel per-athlete evaluations on the dashboard.
const rosterConcurrency = 8

// RosterEntry is one athlete's line on the shared monthly dashboard.
type RosterEntry struct {
	UserID  primitive.ObjectID   `json:"userId"`
	Name    string               `json:"name"`
	Gender  domain.Gender        `json:"gender"`
	Summary domain.PeriodSummary `json:"summary"`
}

// ChallengeService runs the KPI engine over stored data: per-user monthly
// breakdowns, season penalty history, the group roster, and admin config
// management.
type ChallengeService interface {
	GetMonthlySummary(ctx context.Context, userID primitive.ObjectID, year int, month time.Month) (*engine.Result, error)
	GetPenaltyHistory(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]engine.MonthPenalty, float64, error)
	GetRoster(ctx context.Context, year int, month time.Month) ([]RosterEntry, error)
	GetConfig(ctx context.Context) (*domain.ChallengeConfig, error)
	UpdateConfig(ctx context.Context, cfg *domain.ChallengeConfig, updatedBy primitive.ObjectID) (*domain.ChallengeConfig, error)
	ToggleHoliday(ctx context.Context, key string, disabled bool, updatedBy primitive.ObjectID) (*domain.ChallengeConfig, error)
	EnsureConfig(ctx context.Context) error
}

type challengeService struct {
	userRepo          repository.UserRepository
	activityRepo      repository.ActivityRepository
	eventRepo         repository.EventRepository
	participationRepo repository.ParticipationRepository
	configRepo        repository.ConfigRepository
	summaryRepo       repository.SummaryRepository
	logger            *slog.Logger
}

// NewChallengeService creates a new instance of challengeService.
func NewChallengeService(
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	eventRepo repository.EventRepository,
	participationRepo repository.ParticipationRepository,
	configRepo repository.ConfigRepository,
	summaryRepo repository.SummaryRepository,
	logger *slog.Logger,
) ChallengeService {
	return &challengeService{
		userRepo:          userRepo,
		activityRepo:      activityRepo,
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		configRepo:        configRepo,
		summaryRepo:       summaryRepo,
		logger:            logger,
	}
}

// GetMonthlySummary evaluates one user's month and returns the full engine
// result, activity annotations included. The numeric summary is written back
// to the cache so roster and history reads can skip re-evaluation.
func (s *challengeService) GetMonthlySummary(ctx context.Context, userID primitive.ObjectID, year int, month time.Month) (*engine.Result, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cfg, loc, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	in, err := s.buildInput(ctx, user, *cfg, loc, year, month)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := engine.Evaluate(in)
	if err != nil {
		observability.RecordEvaluation("error", time.Since(started), 0)
		return nil, err
	}
	observability.RecordEvaluation("ok", time.Since(started), len(res.Skipped))

	s.refreshCache(ctx, userID, year, month, in, res.Summary)
	return res, nil
}

// GetPenaltyHistory returns per-month penalties from the challenge start
// through the month containing now, plus the season total.
func (s *challengeService) GetPenaltyHistory(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]engine.MonthPenalty, float64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, err
	}

	cfg, loc, err := s.loadConfig(ctx)
	if err != nil {
		return nil, 0, err
	}

	in, err := s.buildSeasonInput(ctx, user, *cfg, loc)
	if err != nil {
		return nil, 0, err
	}
	return engine.History(in, now)
}

// GetRoster evaluates every approved athlete's month for the shared
// dashboard. Cached summaries are served when the athlete's activity set has
// not changed since they were computed.
func (s *challengeService) GetRoster(ctx context.Context, year int, month time.Month) ([]RosterEntry, error) {
	athletes, err := s.userRepo.ListAthletes(ctx, domain.StatusApproved)
	if err != nil {
		return nil, err
	}

	cfg, loc, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]RosterEntry, len(athletes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterConcurrency)
	for i := range athletes {
		i := i
		g.Go(func() error {
			athlete := athletes[i]
			summary, err := s.monthSummary(gctx, &athlete, *cfg, loc, year, month)
			if err != nil {
				return fmt.Errorf("athlete %s: %w", athlete.ID.Hex(), err)
			}
			entries[i] = RosterEntry{
				UserID:  athlete.ID,
				Name:    athlete.Name,
				Gender:  athlete.Gender,
				Summary: *summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Summary.TotalPenalty > entries[j].Summary.TotalPenalty
	})
	return entries, nil
}

// GetConfig returns the current challenge configuration.
func (s *challengeService) GetConfig(ctx context.Context) (*domain.ChallengeConfig, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig validates and persists an admin override. Validation reuses the
// engine's own config checks so a config that saves is a config that
// evaluates.
func (s *challengeService) UpdateConfig(ctx context.Context, cfg *domain.ChallengeConfig, updatedBy primitive.ObjectID) (*domain.ChallengeConfig, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, cfg.Timezone)
	}
	if cfg.StartYear == 0 || cfg.StartMonth < time.January || cfg.StartMonth > time.December {
		return nil, fmt.Errorf("%w: challenge start month is not set", ErrInvalidConfig)
	}
	for _, gender := range []domain.Gender{domain.GenderMale, domain.GenderFemale} {
		probe := engine.Input{Gender: gender, Config: *cfg, Location: loc}
		if _, err := engine.Evaluate(probe); err != nil {
			var cfgErr *engine.ConfigError
			if errors.As(err, &cfgErr) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, cfgErr.Error())
			}
			return nil, err
		}
	}

	cfg.UpdatedBy = updatedBy
	cfg.UpdatedAt = time.Now()
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	s.logger.Info("challenge config updated", "version", cfg.Version, "by", updatedBy.Hex())
	return cfg, nil
}

// ToggleHoliday enables or disables one default holiday by its toggle key.
func (s *challengeService) ToggleHoliday(ctx context.Context, key string, disabled bool, updatedBy primitive.ObjectID) (*domain.ChallengeConfig, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: holiday key cannot be empty", ErrInvalidConfig)
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.DisabledHolidays == nil {
		cfg.DisabledHolidays = make(map[string]bool)
	}
	if disabled {
		cfg.DisabledHolidays[key] = true
	} else {
		delete(cfg.DisabledHolidays, key)
	}
	return s.UpdateConfig(ctx, cfg, updatedBy)
}

// EnsureConfig seeds the default configuration on first boot.
func (s *challengeService) EnsureConfig(ctx context.Context) error {
	_, err := s.configRepo.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	cfg := DefaultChallengeConfig()
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return err
	}
	s.logger.Info("seeded default challenge config", "version", cfg.Version)
	return nil
}

// DefaultChallengeConfig is the configuration a fresh deployment starts with.
func DefaultChallengeConfig() *domain.ChallengeConfig {
	return &domain.ChallengeConfig{
		Targets: map[domain.Gender]domain.DisciplineTargets{
			domain.GenderMale:   {RunKm: 100, SwimKm: 20},
			domain.GenderFemale: {RunKm: 80, SwimKm: 15},
		},
		Caps: domain.DailyCaps{
			WeekdayRunKm:  15,
			WeekendRunKm:  30,
			WeekdaySwimKm: 2,
			WeekendSwimKm: 4,
		},
		Penalties:    domain.PenaltyRates{RunPerKm: 10, SwimPerKm: 50},
		Conversion:   domain.ConversionRatios{SwimToRun: 2, RunToSwim: 0.5},
		MinHeartRate: 100,
		StartYear:    2026,
		StartMonth:   time.January,
		Timezone:     "Asia/Ho_Chi_Minh",
		UpdatedAt:    time.Now(),
	}
}

// --- helpers ---

func (s *challengeService) loadConfig(ctx context.Context) (*domain.ChallengeConfig, *time.Location, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, cfg.Timezone)
	}
	return cfg, loc, nil
}

// buildInput collects one user's month into an engine snapshot.
func (s *challengeService) buildInput(ctx context.Context, user *domain.User, cfg domain.ChallengeConfig, loc *time.Location, year int, month time.Month) (engine.Input, error) {
	from, to := engine.MonthRange(year, month, loc)
	activities, err := s.activityRepo.ListByUserInRange(ctx, user.ID, from, to)
	if err != nil {
		return engine.Input{}, err
	}
	return s.assembleInput(ctx, user, cfg, loc, activities)
}

// buildSeasonInput collects the user's whole activity history; History
// filters per month itself.
func (s *challengeService) buildSeasonInput(ctx context.Context, user *domain.User, cfg domain.ChallengeConfig, loc *time.Location) (engine.Input, error) {
	activities, err := s.activityRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return engine.Input{}, err
	}
	return s.assembleInput(ctx, user, cfg, loc, activities)
}

func (s *challengeService) assembleInput(ctx context.Context, user *domain.User, cfg domain.ChallengeConfig, loc *time.Location, activities []domain.Activity) (engine.Input, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return engine.Input{}, err
	}
	participations, err := s.participationRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return engine.Input{}, err
	}
	return engine.Input{
		Activities:     activities,
		Gender:         user.Gender,
		Events:         events,
		Participations: participations,
		Config:         cfg,
		Location:       loc,
	}, nil
}

// monthSummary serves the cached summary when the activity hash still
// matches, evaluating and refreshing the cache otherwise.
func (s *challengeService) monthSummary(ctx context.Context, user *domain.User, cfg domain.ChallengeConfig, loc *time.Location, year int, month time.Month) (*domain.PeriodSummary, error) {
	in, err := s.buildInput(ctx, user, cfg, loc, year, month)
	if err != nil {
		return nil, err
	}

	hash := snapshotHash(in)
	key := engine.MonthKey(year, month)
	if cached, err := s.summaryRepo.Get(ctx, user.ID, key); err == nil && cached.ActivityHash == hash {
		return &cached.Summary, nil
	}

	started := time.Now()
	res, err := engine.Evaluate(in)
	if err != nil {
		observability.RecordEvaluation("error", time.Since(started), 0)
		return nil, err
	}
	observability.RecordEvaluation("ok", time.Since(started), len(res.Skipped))

	s.refreshCache(ctx, user.ID, year, month, in, res.Summary)
	return &res.Summary, nil
}

// refreshCache is best-effort: cache write failures are logged, never
// surfaced, since the computed value is already in hand.
func (s *challengeService) refreshCache(ctx context.Context, userID primitive.ObjectID, year int, month time.Month, in engine.Input, summary domain.PeriodSummary) {
	doc := &domain.MonthlySummary{
		UserID:       userID,
		MonthKey:     engine.MonthKey(year, month),
		ActivityHash: snapshotHash(in),
		Summary:      summary,
		ComputedAt:   time.Now(),
	}
	if err := s.summaryRepo.Upsert(ctx, doc); err != nil {
		s.logger.Warn("summary cache write failed", "user", userID.Hex(), "month", doc.MonthKey, "error", err)
	}
}

// snapshotHash fingerprints everything the engine reads: the activity
// fields, the event calendar, the user's participations, and the config
// version. Any change to any of them invalidates the cached summary.
func snapshotHash(in engine.Input) string {
	h := sha256.New()
	fmt.Fprintf(h, "v%d\n", in.Config.Version)

	ids := make([]string, 0, len(in.Activities))
	byID := make(map[string]*domain.Activity, len(in.Activities))
	for i := range in.Activities {
		a := &in.Activities[i]
		id := a.SourceID
		if id == "" {
			id = a.ID.Hex()
		}
		ids = append(ids, id)
		byID[id] = a
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := byID[id]
		hr := -1.0
		if a.AverageHeartRate != nil {
			hr = *a.AverageHeartRate
		}
		fmt.Fprintf(h, "a|%s|%s|%d|%g|%d|%g\n", id, a.SportType, a.StartTime.Unix(), a.DistanceMeters, a.MovingTimeSeconds, hr)
	}

	eventLines := make([]string, 0, len(in.Events))
	for i := range in.Events {
		ev := &in.Events[i]
		eventLines = append(eventLines, fmt.Sprintf("e|%s|%s|%s|%d|%d|%s|%s",
			ev.ID.Hex(), ev.Kind, ev.Key, ev.Start.Unix(), ev.End.Unix(), ev.Filter, ev.Target))
	}
	sort.Strings(eventLines)
	for _, line := range eventLines {
		fmt.Fprintln(h, line)
	}

	linkLines := make([]string, 0, len(in.Participations))
	for i := range in.Participations {
		p := &in.Participations[i]
		linkLines = append(linkLines, fmt.Sprintf("p|%s|%s", p.EventID.Hex(), p.ActivityID.Hex()))
	}
	sort.Strings(linkLines)
	for _, line := range linkLines {
		fmt.Fprintln(h, line)
	}

	return hex.EncodeToString(h.Sum(nil))
}
