// Package engine implements the activity quota/validation/penalty
// computation for one user and one billing period. It is pure: no I/O, no
// clocks, no shared state. Callers supply a consistent snapshot of
// activities, events and config, and get back annotated activities plus an
// aggregate summary. Inputs are never mutated.
package engine

import (
	"fmt"
	"math"
	"time"

	"fitkpi/challenge-app/internal/domain"
)

// Input is the full snapshot one evaluation runs over.
type Input struct {
	Activities     []domain.Activity
	Gender         domain.Gender
	Events         []domain.SpecialEvent
	Participations []domain.EventParticipation
	Config         domain.ChallengeConfig
	// Location sets the wall clock that day and month boundaries are computed
	// in. Required; the engine never consults the system clock.
	Location *time.Location
}

// SkippedActivity reports a malformed record that was quarantined instead of
// being summed.
type SkippedActivity struct {
	SourceID string `json:"sourceId"`
	Reason   string `json:"reason"`
}

// Result is the engine output: every input activity annotated in input order,
// the aggregate summary, and any quarantined records.
type Result struct {
	Activities []ValidatedActivity  `json:"activities"`
	Summary    domain.PeriodSummary `json:"summary"`
	Skipped    []SkippedActivity    `json:"skipped,omitempty"`
}

// ConfigError reports a missing or unusable configuration value. Evaluation
// fails fast on these rather than computing against zero values.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("challenge config: %s: %s", e.Field, e.Reason)
}

// Evaluate runs the three stages (validate, allocate quota, aggregate) over
// one period's activities. An empty activity list is not an error: the
// summary reports zero progress and the full deficit.
func Evaluate(in Input) (*Result, error) {
	if in.Location == nil {
		return nil, &ConfigError{Field: "location", Reason: "time location is required"}
	}
	targets, err := checkConfig(in.Config, in.Gender)
	if err != nil {
		return nil, err
	}

	valid, skipped := screen(in.Activities)
	activities := validate(valid, in)
	allocate(activities, in.Config.Caps, in.Location)
	summary := summarize(activities, targets, in.Config)

	return &Result{Activities: activities, Summary: summary, Skipped: skipped}, nil
}

// checkConfig resolves the gender-keyed targets and rejects configs the
// computation cannot run against.
func checkConfig(cfg domain.ChallengeConfig, gender domain.Gender) (domain.DisciplineTargets, error) {
	var zero domain.DisciplineTargets
	if gender != domain.GenderMale && gender != domain.GenderFemale {
		return zero, &ConfigError{Field: "gender", Reason: fmt.Sprintf("unknown gender %q", gender)}
	}
	targets, ok := cfg.Targets[gender]
	if !ok {
		return zero, &ConfigError{Field: "targets", Reason: fmt.Sprintf("no monthly targets for gender %q", gender)}
	}
	if targets.RunKm <= 0 || targets.SwimKm <= 0 {
		return zero, &ConfigError{Field: "targets", Reason: "monthly targets must be positive"}
	}
	if cfg.Caps.WeekdayRunKm <= 0 || cfg.Caps.WeekendRunKm <= 0 ||
		cfg.Caps.WeekdaySwimKm <= 0 || cfg.Caps.WeekendSwimKm <= 0 {
		return zero, &ConfigError{Field: "caps", Reason: "daily caps must be positive"}
	}
	if cfg.Penalties.RunPerKm < 0 || cfg.Penalties.SwimPerKm < 0 {
		return zero, &ConfigError{Field: "penalties", Reason: "penalty rates cannot be negative"}
	}
	if cfg.Conversion.SwimToRun <= 0 || cfg.Conversion.RunToSwim <= 0 {
		return zero, &ConfigError{Field: "conversion", Reason: "conversion ratios must be positive"}
	}
	if cfg.MinHeartRate <= 0 {
		return zero, &ConfigError{Field: "minHeartRate", Reason: "minimum heart rate must be positive"}
	}
	return targets, nil
}

// screen quarantines malformed records so they never reach the sums.
func screen(activities []domain.Activity) ([]domain.Activity, []SkippedActivity) {
	ok := make([]domain.Activity, 0, len(activities))
	var skipped []SkippedActivity
	for _, a := range activities {
		switch {
		case a.StartTime.IsZero():
			skipped = append(skipped, SkippedActivity{SourceID: a.SourceID, Reason: "missing start time"})
		case math.IsNaN(a.DistanceMeters) || math.IsInf(a.DistanceMeters, 0):
			skipped = append(skipped, SkippedActivity{SourceID: a.SourceID, Reason: "distance is not a number"})
		case a.DistanceMeters < 0:
			skipped = append(skipped, SkippedActivity{SourceID: a.SourceID, Reason: "negative distance"})
		case a.MovingTimeSeconds < 0:
			skipped = append(skipped, SkippedActivity{SourceID: a.SourceID, Reason: "negative moving time"})
		default:
			ok = append(ok, a)
		}
	}
	return ok, skipped
}
