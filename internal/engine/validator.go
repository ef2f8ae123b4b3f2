package engine

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
)

// ValidatedActivity is an annotated copy of one input activity. Every input
// record appears in the output: invalid and non-run/swim activities are kept
// for display, but only valid run/swim activities receive quota credit.
type ValidatedActivity struct {
	domain.Activity

	Class  ActivityClass `json:"activityClass"`
	Valid  bool          `json:"isValid"`
	Issues []string      `json:"issues,omitempty"`

	EventActivity   bool                 `json:"isEventActivity"`
	DefaultEventDay bool                 `json:"isDefaultEventDay"`
	Event           *domain.SpecialEvent `json:"eventInfo,omitempty"`

	CountedKm        float64 `json:"countedDistanceKm"`
	QuotaExceeded    bool    `json:"quotaExceeded"`
	QuotaRemainderKm float64 `json:"quotaRemainderKm"`
	DailyQuotaKm     float64 `json:"dailyQuotaKm"`
	DayTotalBeforeKm float64 `json:"dayTotalBeforeKm"`

	// PaceSecondsPerKm is display-only and plays no part in KPI.
	PaceSecondsPerKm float64 `json:"paceSecondsPerKm,omitempty"`
}

// eventCovered reports whether the activity bypasses the daily quota.
func (v *ValidatedActivity) eventCovered() bool {
	return v.EventActivity || v.DefaultEventDay
}

// validate classifies and gates every screened activity and tags event and
// holiday coverage. It never drops records.
func validate(activities []domain.Activity, in Input) []ValidatedActivity {
	byActivity := make(map[primitive.ObjectID]*domain.SpecialEvent, len(in.Participations))
	eventsByID := make(map[primitive.ObjectID]*domain.SpecialEvent, len(in.Events))
	for i := range in.Events {
		eventsByID[in.Events[i].ID] = &in.Events[i]
	}
	for _, p := range in.Participations {
		if ev, ok := eventsByID[p.EventID]; ok {
			byActivity[p.ActivityID] = ev
		}
	}

	out := make([]ValidatedActivity, 0, len(activities))
	for _, a := range activities {
		v := ValidatedActivity{Activity: a, Valid: true}
		v.Class = Classify(a.SportType)
		if a.MovingTimeSeconds > 0 && a.DistanceMeters > 0 {
			v.PaceSecondsPerKm = float64(a.MovingTimeSeconds) / a.DistanceKm()
		}

		if !v.Class.Countable() {
			// Rides and unrecognized sports are excluded from KPI outright;
			// they carry no validity verdict beyond the classification.
			v.Valid = false
			v.Issues = append(v.Issues, fmt.Sprintf("sport type %q does not count toward KPI", a.SportType))
			out = append(out, v)
			continue
		}

		// Heart-rate gate. Absent HR data passes: the tracker does not always
		// record it and the benefit of the doubt goes to the athlete.
		if a.AverageHeartRate != nil && *a.AverageHeartRate <= in.Config.MinHeartRate {
			v.Valid = false
			v.Issues = append(v.Issues, fmt.Sprintf(
				"average heart rate %.0f is at or below the %.0f bpm minimum",
				*a.AverageHeartRate, in.Config.MinHeartRate))
		}

		tagEvent(&v, in, byActivity)
		out = append(out, v)
	}
	return out
}

// tagEvent marks holiday or event coverage. Default holidays are checked
// first and short-circuit: an activity on a holiday never also counts as an
// explicit event participation, even when both would apply.
func tagEvent(v *ValidatedActivity, in Input, byActivity map[primitive.ObjectID]*domain.SpecialEvent) {
	day := dayOrdinal(v.StartTime, in.Location)
	for i := range in.Events {
		ev := &in.Events[i]
		if ev.Kind != domain.EventKindHoliday {
			continue
		}
		if in.Config.HolidayDisabled(ev.Key) {
			continue
		}
		if !ev.AppliesToGender(in.Gender) || !filterMatches(ev.Filter, v.Class) {
			continue
		}
		if withinWindow(day, ev, in.Location) {
			v.DefaultEventDay = true
			v.Event = ev
			return
		}
	}

	if ev, ok := byActivity[v.Activity.ID]; ok {
		v.EventActivity = true
		v.Event = ev
	}
}

func filterMatches(f domain.ActivityFilter, class ActivityClass) bool {
	switch f {
	case domain.FilterBoth, "":
		return class.Countable()
	case domain.FilterRun:
		return class == ClassRun
	case domain.FilterSwim:
		return class == ClassSwim
	}
	return false
}
