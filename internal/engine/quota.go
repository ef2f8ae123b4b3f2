package engine

import (
	"sort"
	"time"

	"fitkpi/challenge-app/internal/domain"
)

// allocate walks each discipline's activities day by day in chronological
// order and assigns every valid run/swim activity its counted distance
// against that day's remaining quota. Event-covered activities take full
// credit and leave the day's quota accounting untouched. Annotations are
// written in place; the slice keeps its input order.
func allocate(activities []ValidatedActivity, caps domain.DailyCaps, loc *time.Location) {
	type dayGroup struct {
		class ActivityClass
		day   int
	}
	groups := make(map[dayGroup][]int)
	for i := range activities {
		v := &activities[i]
		if !v.Valid || !v.Class.Countable() {
			continue
		}
		key := dayGroup{class: v.Class, day: dayOrdinal(v.StartTime, loc)}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		// Stable sort: equal timestamps keep their original order, which
		// decides who gets truncated once the cap is hit.
		sort.SliceStable(idxs, func(a, b int) bool {
			return activities[idxs[a]].StartTime.Before(activities[idxs[b]].StartTime)
		})

		first := &activities[idxs[0]]
		quota := caps.CapFor(first.Class == ClassRun, isWeekend(first.StartTime, loc))

		dayTotal := 0.0
		for _, i := range idxs {
			v := &activities[i]
			distance := v.DistanceKm()
			v.DailyQuotaKm = quota
			v.DayTotalBeforeKm = dayTotal

			if v.eventCovered() {
				// Event bypass: full credit, and the day's quota pool is not
				// charged, so sibling activities are unaffected.
				v.CountedKm = distance
				continue
			}

			remaining := quota - dayTotal
			if remaining < 0 {
				remaining = 0
			}
			if distance > remaining {
				v.CountedKm = remaining
				v.QuotaExceeded = true
				v.QuotaRemainderKm = distance - remaining
			} else {
				v.CountedKm = distance
			}
			dayTotal += v.CountedKm
		}
	}
}
