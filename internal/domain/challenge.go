package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DisciplineTargets are gender-keyed monthly distance targets in km.
type DisciplineTargets struct {
	RunKm  float64 `bson:"runKm" json:"runKm"`
	SwimKm float64 `bson:"swimKm" json:"swimKm"`
}

// DailyCaps is the maximum distance per discipline that counts toward KPI on
// a single calendar day. Weekday and weekend caps differ.
type DailyCaps struct {
	WeekdayRunKm  float64 `bson:"weekdayRunKm" json:"weekdayRunKm"`
	WeekendRunKm  float64 `bson:"weekendRunKm" json:"weekendRunKm"`
	WeekdaySwimKm float64 `bson:"weekdaySwimKm" json:"weekdaySwimKm"`
	WeekendSwimKm float64 `bson:"weekendSwimKm" json:"weekendSwimKm"`
}

// PenaltyRates are the currency units charged per km of final deficit.
type PenaltyRates struct {
	RunPerKm  float64 `bson:"runPerKm" json:"runPerKm"`
	SwimPerKm float64 `bson:"swimPerKm" json:"swimPerKm"`
}

// ConversionRatios control cross-discipline deficit offsetting. SwimToRun is
// the km of run deficit one km of swim surplus cancels, and vice versa.
type ConversionRatios struct {
	SwimToRun float64 `bson:"swimToRun" json:"swimToRun"`
	RunToSwim float64 `bson:"runToSwim" json:"runToSwim"`
}

// ChallengeConfig is the versioned singleton document holding every knob the
// KPI engine consumes. Admin overrides are persisted here; the engine itself
// receives the config as an immutable value on every call.
type ChallengeConfig struct {
	ID               primitive.ObjectID           `bson:"_id,omitempty" json:"id"`
	Version          int                          `bson:"version" json:"version"`
	Targets          map[Gender]DisciplineTargets `bson:"targets" json:"targets"`
	Caps             DailyCaps                    `bson:"caps" json:"caps"`
	Penalties        PenaltyRates                 `bson:"penalties" json:"penalties"`
	Conversion       ConversionRatios             `bson:"conversion" json:"conversion"`
	MinHeartRate     float64                      `bson:"minHeartRate" json:"minHeartRate"`
	DisabledHolidays map[string]bool              `bson:"disabledHolidays,omitempty" json:"disabledHolidays,omitempty"`
	StartYear        int                          `bson:"startYear" json:"startYear"`
	StartMonth       time.Month                   `bson:"startMonth" json:"startMonth"`
	// Timezone is the IANA name the challenge computes day boundaries in.
	Timezone  string             `bson:"timezone" json:"timezone"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CapFor returns the daily cap for a discipline on a weekday or weekend day.
func (c *DailyCaps) CapFor(run bool, weekend bool) float64 {
	switch {
	case run && weekend:
		return c.WeekendRunKm
	case run:
		return c.WeekdayRunKm
	case weekend:
		return c.WeekendSwimKm
	default:
		return c.WeekdaySwimKm
	}
}

// HolidayDisabled reports whether the admin toggle switched a default holiday
// off. Absent entries mean enabled (fail-open).
func (c *ChallengeConfig) HolidayDisabled(key string) bool {
	if c.DisabledHolidays == nil {
		return false
	}
	return c.DisabledHolidays[key]
}
