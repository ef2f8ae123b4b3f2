package engine

import "strings"

// ActivityClass is the closed discipline classification the KPI rules run on.
type ActivityClass string

const (
	ClassRun   ActivityClass = "run"
	ClassSwim  ActivityClass = "swim"
	ClassRide  ActivityClass = "ride"
	ClassOther ActivityClass = "other"
)

// Classify normalizes the tracker's free-text sport type into an
// ActivityClass. The tracker's taxonomy is informal ("Run", "TrailRun",
// "VirtualRide", "Walk", ...), so matching is a case-insensitive substring
// check: anything containing "run" or "walk" is run-class, "swim" is
// swim-class, "ride" or "bike" is ride-class, the rest is other.
func Classify(sportType string) ActivityClass {
	s := strings.ToLower(sportType)
	switch {
	case strings.Contains(s, "run") || strings.Contains(s, "walk"):
		return ClassRun
	case strings.Contains(s, "swim"):
		return ClassSwim
	case strings.Contains(s, "ride") || strings.Contains(s, "bike"):
		return ClassRide
	default:
		return ClassOther
	}
}

// Countable reports whether a class participates in KPI at all. Rides and
// unclassified activities are annotated for display but never counted.
func (c ActivityClass) Countable() bool {
	return c == ClassRun || c == ClassSwim
}
