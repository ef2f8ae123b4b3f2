package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
)

type eventFixture struct {
	svc        EventService
	events     *memEventRepo
	activities *memActivityRepo
	links      *memParticipationRepo
}

func newEventFixture() *eventFixture {
	f := &eventFixture{
		events:     newMemEventRepo(),
		activities: newMemActivityRepo(),
		links:      newMemParticipationRepo(),
	}
	f.svc = NewEventService(f.events, f.activities, f.links, testLogger())
	return f
}

func raceEvent() *domain.SpecialEvent {
	return &domain.SpecialEvent{
		Kind:   domain.EventKindCustom,
		Name:   "City Marathon",
		Start:  time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC),
		Filter: domain.FilterRun,
		Target: domain.TargetAll,
	}
}

func (f *eventFixture) addActivity(t *testing.T, userID primitive.ObjectID, sportType string, start time.Time) primitive.ObjectID {
	t.Helper()
	a := &domain.Activity{
		UserID:            userID,
		SourceID:          primitive.NewObjectID().Hex(),
		SportType:         sportType,
		StartTime:         start,
		DistanceMeters:    42195,
		MovingTimeSeconds: 4 * 3600,
	}
	_, err := f.activities.Upsert(context.Background(), a)
	require.NoError(t, err)
	return a.ID
}

func TestCreateEventValidation(t *testing.T) {
	f := newEventFixture()
	admin := primitive.NewObjectID()

	created, err := f.svc.Create(context.Background(), raceEvent(), admin)
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, admin, created.CreatedBy)

	bad := raceEvent()
	bad.Name = ""
	_, err = f.svc.Create(context.Background(), bad, admin)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	bad = raceEvent()
	bad.End = bad.Start.AddDate(0, 0, -2)
	_, err = f.svc.Create(context.Background(), bad, admin)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	bad = raceEvent()
	bad.Kind = domain.EventKindHoliday // No toggle key.
	_, err = f.svc.Create(context.Background(), bad, admin)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestLinkActivityHappyPath(t *testing.T) {
	f := newEventFixture()
	userID := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), primitive.NewObjectID())
	require.NoError(t, err)
	activityID := f.addActivity(t, userID, "Run", time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC))

	link, err := f.svc.LinkActivity(context.Background(), userID, event.ID, activityID, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, event.ID, link.EventID)
	assert.Equal(t, activityID, link.ActivityID)
}

func TestLinkActivityRejectsSecondLink(t *testing.T) {
	f := newEventFixture()
	userID := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), primitive.NewObjectID())
	require.NoError(t, err)
	first := f.addActivity(t, userID, "Run", time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC))
	second := f.addActivity(t, userID, "Run", time.Date(2026, time.March, 8, 8, 0, 0, 0, time.UTC))

	_, err = f.svc.LinkActivity(context.Background(), userID, event.ID, first, time.UTC)
	require.NoError(t, err)

	_, err = f.svc.LinkActivity(context.Background(), userID, event.ID, second, time.UTC)
	assert.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestLinkActivityRejectsOutsideWindow(t *testing.T) {
	f := newEventFixture()
	userID := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), primitive.NewObjectID())
	require.NoError(t, err)
	activityID := f.addActivity(t, userID, "Run", time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC))

	_, err = f.svc.LinkActivity(context.Background(), userID, event.ID, activityID, time.UTC)
	assert.ErrorIs(t, err, ErrOutsideEventWindow)
}

func TestLinkActivityRejectsForeignActivity(t *testing.T) {
	f := newEventFixture()
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), primitive.NewObjectID())
	require.NoError(t, err)
	activityID := f.addActivity(t, owner, "Run", time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC))

	_, err = f.svc.LinkActivity(context.Background(), intruder, event.ID, activityID, time.UTC)
	assert.ErrorIs(t, err, ErrNotActivityOwner)
}

func TestLinkActivityRejectsFilterMismatch(t *testing.T) {
	f := newEventFixture()
	userID := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), primitive.NewObjectID())
	require.NoError(t, err)
	activityID := f.addActivity(t, userID, "Swim", time.Date(2026, time.March, 7, 8, 0, 0, 0, time.UTC))

	_, err = f.svc.LinkActivity(context.Background(), userID, event.ID, activityID, time.UTC)
	assert.ErrorIs(t, err, ErrEventFilterMismatch)
}

func TestUpdatePreservesProvenance(t *testing.T) {
	f := newEventFixture()
	creator := primitive.NewObjectID()

	event, err := f.svc.Create(context.Background(), raceEvent(), creator)
	require.NoError(t, err)

	changed := *event
	changed.Name = "City Marathon (rescheduled)"
	changed.CreatedBy = primitive.NewObjectID() // Must be ignored.

	updated, err := f.svc.Update(context.Background(), &changed)
	require.NoError(t, err)
	assert.Equal(t, creator, updated.CreatedBy)
	assert.Equal(t, "City Marathon (rescheduled)", updated.Name)
}

func TestDeleteMissingEvent(t *testing.T) {
	f := newEventFixture()
	err := f.svc.Delete(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrEventNotFound)
}
