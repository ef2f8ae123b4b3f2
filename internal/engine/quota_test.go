package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
)

func TestQuotaTruncatesSecondActivity(t *testing.T) {
	// 10 km then 8 km against a 15 km weekday cap.
	first := run(10, jan, hr(140))
	second := run(8, jan.Add(3*time.Hour), hr(140))

	res := evaluate(t, maleInput(testConfig(), first, second))

	a, b := res.Activities[0], res.Activities[1]
	require.Equal(t, 10.0, a.CountedKm)
	require.False(t, a.QuotaExceeded)
	require.Zero(t, a.DayTotalBeforeKm)

	require.Equal(t, 5.0, b.CountedKm)
	require.True(t, b.QuotaExceeded)
	require.Equal(t, 3.0, b.QuotaRemainderKm)
	require.Equal(t, 10.0, b.DayTotalBeforeKm)
	require.Equal(t, 15.0, b.DailyQuotaKm)

	require.Equal(t, 15.0, res.Summary.RunCountedKm)
}

func TestQuotaExhaustionZeroesLaterActivities(t *testing.T) {
	// Once the first activity consumes the whole cap, everything after it
	// on the same day counts zero.
	first := run(15, jan, hr(140))
	second := run(6, jan.Add(time.Hour), hr(140))
	third := run(4, jan.Add(2*time.Hour), hr(140))

	res := evaluate(t, maleInput(testConfig(), first, second, third))

	require.Equal(t, 15.0, res.Activities[0].CountedKm)
	require.Zero(t, res.Activities[1].CountedKm)
	require.True(t, res.Activities[1].QuotaExceeded)
	require.Equal(t, 6.0, res.Activities[1].QuotaRemainderKm)
	require.Zero(t, res.Activities[2].CountedKm)
}

func TestQuotaOrderIsChronologicalNotInputOrder(t *testing.T) {
	later := run(8, jan.Add(5*time.Hour), hr(140))
	earlier := run(12, jan, hr(140))

	// The later activity comes first in input order, but the earlier one gets
	// first claim on the quota.
	res := evaluate(t, maleInput(testConfig(), later, earlier))

	require.Equal(t, 3.0, res.Activities[0].CountedKm) // later, truncated
	require.True(t, res.Activities[0].QuotaExceeded)
	require.Equal(t, 12.0, res.Activities[1].CountedKm) // earlier, full credit
}

func TestWeekendCapApplies(t *testing.T) {
	saturday := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	res := evaluate(t, maleInput(testConfig(), run(28, saturday, hr(140))))

	a := res.Activities[0]
	require.Equal(t, 30.0, a.DailyQuotaKm)
	require.Equal(t, 28.0, a.CountedKm)
	require.False(t, a.QuotaExceeded)
}

func TestDisciplinesHaveIndependentPools(t *testing.T) {
	// A maxed-out run day must not eat into the swim quota.
	res := evaluate(t, maleInput(testConfig(),
		run(15, jan, hr(140)),
		swim(2, jan.Add(time.Hour), hr(120)),
	))

	require.Equal(t, 15.0, res.Summary.RunCountedKm)
	require.Equal(t, 2.0, res.Summary.SwimCountedKm)
	require.False(t, res.Activities[1].QuotaExceeded)
}

func TestSeparateDaysGetFreshQuota(t *testing.T) {
	res := evaluate(t, maleInput(testConfig(),
		run(15, jan, hr(140)),
		run(15, jan.AddDate(0, 0, 1), hr(140)),
	))

	require.Equal(t, 30.0, res.Summary.RunCountedKm)
	for _, a := range res.Activities {
		require.False(t, a.QuotaExceeded)
	}
}

func TestEventBypassesQuota(t *testing.T) {
	// A 50 km holiday run counts in full against a 15 km cap and
	// leaves the sibling's quota untouched.
	cfg := testConfig()
	holiday := domain.SpecialEvent{
		ID:     primitive.NewObjectID(),
		Kind:   domain.EventKindHoliday,
		Key:    "race-day",
		Start:  jan,
		End:    jan,
		Filter: domain.FilterBoth,
		Target: domain.TargetAll,
	}
	big := run(50, jan, hr(150))
	sibling := run(10, jan.Add(2*time.Hour), hr(140))
	sibling.SportType = "Run"

	in := maleInput(cfg, big, sibling)
	in.Events = []domain.SpecialEvent{holiday}
	res := evaluate(t, in)

	// Both land on the holiday, so both bypass. Narrow the holiday to verify
	// the non-event sibling case separately below.
	require.Equal(t, 50.0, res.Activities[0].CountedKm)
	require.True(t, res.Activities[0].DefaultEventDay)
	require.Equal(t, 10.0, res.Activities[1].CountedKm)
}

func TestEventBypassDoesNotChargeSiblingQuota(t *testing.T) {
	// An explicitly linked event activity takes full credit without
	// consuming the day's pool, so a later plain activity still sees the full
	// cap.
	cfg := testConfig()
	event := domain.SpecialEvent{
		ID:     primitive.NewObjectID(),
		Kind:   domain.EventKindCustom,
		Name:   "Ultra",
		Start:  jan,
		End:    jan,
		Filter: domain.FilterRun,
		Target: domain.TargetAll,
	}
	raceRun := run(50, jan, hr(150))
	plain := run(12, jan.Add(4*time.Hour), hr(140))

	in := maleInput(cfg, raceRun, plain)
	in.Events = []domain.SpecialEvent{event}
	in.Participations = []domain.EventParticipation{
		{EventID: event.ID, ActivityID: raceRun.ID},
	}
	res := evaluate(t, in)

	require.Equal(t, 50.0, res.Activities[0].CountedKm)
	require.Zero(t, res.Activities[0].QuotaRemainderKm)
	require.Equal(t, 12.0, res.Activities[1].CountedKm)
	require.False(t, res.Activities[1].QuotaExceeded)
	require.Zero(t, res.Activities[1].DayTotalBeforeKm)
}

func TestInvalidActivityDoesNotConsumeQuota(t *testing.T) {
	lowHR := run(10, jan, hr(80))
	valid := run(12, jan.Add(time.Hour), hr(140))

	res := evaluate(t, maleInput(testConfig(), lowHR, valid))

	require.Zero(t, res.Activities[0].CountedKm)
	require.Equal(t, 12.0, res.Activities[1].CountedKm)
	require.False(t, res.Activities[1].QuotaExceeded)
}

func TestCountedNeverExceedsRaw(t *testing.T) {
	// Per discipline, counted never exceeds raw for any mix of days.
	acts := []domain.Activity{
		run(20, jan, hr(140)),
		run(7, jan.Add(time.Hour), hr(140)),
		run(31, jan.AddDate(0, 0, 5), hr(140)), // Saturday
		swim(5, jan.Add(2*time.Hour), hr(120)),
	}
	res := evaluate(t, maleInput(testConfig(), acts...))

	var raw, counted float64
	for _, a := range res.Activities {
		if a.Class == ClassRun && a.Valid {
			raw += a.DistanceKm()
			counted += a.CountedKm
		}
	}
	require.LessOrEqual(t, counted, raw)
	require.Equal(t, 15.0+30.0, counted) // weekday cap + weekend cap
}
