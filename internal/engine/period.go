package engine

import (
	"fmt"
	"time"

	"fitkpi/challenge-app/internal/domain"
)

// MonthRange returns the half-open interval [start, end) of a calendar month
// in the given location. Day and month boundaries are local wall-clock, never
// UTC.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthKey renders the canonical "2006-01" key for a month.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// FilterMonth returns the activities whose local start time falls within
// [monthStart, monthEnd). The input slice is not modified.
func FilterMonth(activities []domain.Activity, year int, month time.Month, loc *time.Location) []domain.Activity {
	start, end := MonthRange(year, month, loc)
	out := make([]domain.Activity, 0, len(activities))
	for _, a := range activities {
		t := a.StartTime.In(loc)
		if !t.Before(start) && t.Before(end) {
			out = append(out, a)
		}
	}
	return out
}

// dayOrdinal collapses a moment to a comparable local calendar day.
func dayOrdinal(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}

// isWeekend reports Saturday or Sunday in the local calendar.
func isWeekend(t time.Time, loc *time.Location) bool {
	wd := t.In(loc).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// withinWindow reports whether the activity's local day falls inside the
// event's inclusive [start, end] date window. Event bounds are converted
// through the same location as the activity day so both sides compare on the
// same calendar.
func withinWindow(day int, ev *domain.SpecialEvent, loc *time.Location) bool {
	return day >= dayOrdinal(ev.Start, loc) && day <= dayOrdinal(ev.End, loc)
}
