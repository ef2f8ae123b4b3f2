package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/repository"
)

type challengeFixture struct {
	svc        ChallengeService
	users      *memUserRepo
	activities *memActivityRepo
	events     *memEventRepo
	links      *memParticipationRepo
	config     *memConfigRepo
	summaries  *memSummaryRepo
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()
	f := &challengeFixture{
		users:      newMemUserRepo(),
		activities: newMemActivityRepo(),
		events:     newMemEventRepo(),
		links:      newMemParticipationRepo(),
		config:     &memConfigRepo{},
		summaries:  newMemSummaryRepo(),
	}
	f.svc = NewChallengeService(f.users, f.activities, f.events, f.links, f.config, f.summaries, testLogger())

	cfg := DefaultChallengeConfig()
	cfg.Timezone = "UTC"
	require.NoError(t, f.config.Upsert(context.Background(), cfg))
	return f
}

func (f *challengeFixture) addAthlete(t *testing.T, name string, gender domain.Gender) primitive.ObjectID {
	t.Helper()
	id, err := f.users.Create(context.Background(), &domain.User{
		Name:   name,
		Email:  name + "@example.com",
		Role:   domain.RoleAthlete,
		Gender: gender,
		Status: domain.StatusApproved,
	})
	require.NoError(t, err)
	return id
}

func (f *challengeFixture) addRun(t *testing.T, userID primitive.ObjectID, sourceID string, start time.Time, km float64) {
	t.Helper()
	hr := 140.0
	_, err := f.activities.Upsert(context.Background(), &domain.Activity{
		UserID:            userID,
		SourceID:          sourceID,
		SportType:         "Run",
		StartTime:         start,
		DistanceMeters:    km * 1000,
		MovingTimeSeconds: int(km * 360),
		AverageHeartRate:  &hr,
	})
	require.NoError(t, err)
}

func TestGetMonthlySummaryEvaluatesAndCaches(t *testing.T) {
	f := newChallengeFixture(t)
	userID := f.addAthlete(t, "an", domain.GenderMale)
	// Monday, well inside the weekday cap.
	f.addRun(t, userID, "r1", time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC), 10)

	res, err := f.svc.GetMonthlySummary(context.Background(), userID, 2026, time.January)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, res.Summary.RunCountedKm, 1e-9)
	// (100-10)*10 run penalty + 20*50 swim penalty.
	assert.InDelta(t, 1900.0, res.Summary.TotalPenalty, 1e-9)

	cached, err := f.summaries.Get(context.Background(), userID, "2026-01")
	require.NoError(t, err)
	assert.InDelta(t, 1900.0, cached.Summary.TotalPenalty, 1e-9)
}

func TestGetMonthlySummaryUnknownUser(t *testing.T) {
	f := newChallengeFixture(t)
	_, err := f.svc.GetMonthlySummary(context.Background(), primitive.NewObjectID(), 2026, time.January)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRosterServesCacheUntilActivitiesChange(t *testing.T) {
	f := newChallengeFixture(t)
	userID := f.addAthlete(t, "an", domain.GenderMale)
	f.addRun(t, userID, "r1", time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC), 10)

	_, err := f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	assert.Equal(t, 1, f.summaries.upsertCount())

	// Unchanged activity set: the cached summary is reused.
	_, err = f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	assert.Equal(t, 1, f.summaries.upsertCount())

	// A new sync invalidates the hash and forces a recompute.
	f.addRun(t, userID, "r2", time.Date(2026, time.January, 6, 6, 0, 0, 0, time.UTC), 5)
	_, err = f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	assert.Equal(t, 2, f.summaries.upsertCount())
}

func TestRosterRecomputesAfterEventLink(t *testing.T) {
	f := newChallengeFixture(t)
	userID := f.addAthlete(t, "an", domain.GenderMale)

	// A 50 km run on a Monday is capped at the 15 km weekday quota.
	hr := 140.0
	activity := &domain.Activity{
		UserID:            userID,
		SourceID:          "r1",
		SportType:         "Run",
		StartTime:         time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC),
		DistanceMeters:    50000,
		MovingTimeSeconds: 5 * 3600,
		AverageHeartRate:  &hr,
	}
	_, err := f.activities.Upsert(context.Background(), activity)
	require.NoError(t, err)

	roster, err := f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.InDelta(t, 15.0, roster[0].Summary.RunCountedKm, 1e-9)

	// Linking the run to a custom event lifts the cap, so the cached summary
	// must be invalidated even though the activity set is unchanged.
	eventID, err := f.events.Create(context.Background(), &domain.SpecialEvent{
		Kind:   domain.EventKindCustom,
		Name:   "Ultra Day",
		Start:  time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Filter: domain.FilterRun,
		Target: domain.TargetAll,
	})
	require.NoError(t, err)
	_, err = f.links.Create(context.Background(), &domain.EventParticipation{
		UserID:     userID,
		EventID:    eventID,
		ActivityID: activity.ID,
	})
	require.NoError(t, err)

	roster, err = f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.InDelta(t, 50.0, roster[0].Summary.RunCountedKm, 1e-9)
}

func TestRosterSortsByPenaltyDescending(t *testing.T) {
	f := newChallengeFixture(t)
	slacker := f.addAthlete(t, "slacker", domain.GenderMale)
	runner := f.addAthlete(t, "runner", domain.GenderMale)
	f.addRun(t, runner, "r1", time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC), 12)

	roster, err := f.svc.GetRoster(context.Background(), 2026, time.January)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, slacker, roster[0].UserID)
	assert.Equal(t, runner, roster[1].UserID)
	assert.Greater(t, roster[0].Summary.TotalPenalty, roster[1].Summary.TotalPenalty)
}

func TestPenaltyHistoryCoversSeason(t *testing.T) {
	f := newChallengeFixture(t)
	userID := f.addAthlete(t, "an", domain.GenderMale)

	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)
	history, total, err := f.svc.GetPenaltyHistory(context.Background(), userID, now)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "2026-01", history[0].MonthKey)
	assert.Equal(t, "2026-02", history[1].MonthKey)
	// Both months empty: full deficit each.
	assert.InDelta(t, 2*(100*10+20*50), total, 1e-9)
}

func TestUpdateConfigValidatesBeforePersisting(t *testing.T) {
	f := newChallengeFixture(t)
	admin := primitive.NewObjectID()

	cfg, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)

	cfg.Caps.WeekdayRunKm = 0
	_, err = f.svc.UpdateConfig(context.Background(), cfg, admin)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Caps.WeekdayRunKm = 20
	updated, err := f.svc.UpdateConfig(context.Background(), cfg, admin)
	require.NoError(t, err)
	assert.Equal(t, admin, updated.UpdatedBy)

	stored, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, stored.Caps.WeekdayRunKm, 1e-9)
	assert.Greater(t, stored.Version, 1)
}

func TestUpdateConfigRejectsUnknownTimezone(t *testing.T) {
	f := newChallengeFixture(t)

	cfg, err := f.svc.GetConfig(context.Background())
	require.NoError(t, err)
	cfg.Timezone = "Mars/Olympus_Mons"

	_, err = f.svc.UpdateConfig(context.Background(), cfg, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestToggleHolidayRoundTrips(t *testing.T) {
	f := newChallengeFixture(t)
	admin := primitive.NewObjectID()

	cfg, err := f.svc.ToggleHoliday(context.Background(), "tet", true, admin)
	require.NoError(t, err)
	assert.True(t, cfg.HolidayDisabled("tet"))

	cfg, err = f.svc.ToggleHoliday(context.Background(), "tet", false, admin)
	require.NoError(t, err)
	assert.False(t, cfg.HolidayDisabled("tet"))
}

func TestEnsureConfigSeedsOnce(t *testing.T) {
	config := &memConfigRepo{}
	svc := NewChallengeService(newMemUserRepo(), newMemActivityRepo(), newMemEventRepo(), newMemParticipationRepo(), config, newMemSummaryRepo(), testLogger())

	_, err := config.Get(context.Background())
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.EnsureConfig(context.Background()))
	first, err := config.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.EnsureConfig(context.Background()))
	second, err := config.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)
}
