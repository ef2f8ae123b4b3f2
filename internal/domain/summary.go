package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PeriodSummary is the engine's aggregate output for one user and one
// calendar month. Distances are km rounded to one decimal; progress is
// uncapped so overachievement shows as >100%.
type PeriodSummary struct {
	RunCountedKm  float64 `bson:"runCountedKm" json:"runCountedKm"`
	SwimCountedKm float64 `bson:"swimCountedKm" json:"swimCountedKm"`
	RunTargetKm   float64 `bson:"runTargetKm" json:"runTargetKm"`
	SwimTargetKm  float64 `bson:"swimTargetKm" json:"swimTargetKm"`

	RunProgressPct  float64 `bson:"runProgressPct" json:"runProgressPct"`
	SwimProgressPct float64 `bson:"swimProgressPct" json:"swimProgressPct"`

	// Conversion detail: how much of one discipline's deficit was covered by
	// the other's surplus, and how much surplus that consumed.
	RunFromSwimKm     float64 `bson:"runFromSwimKm" json:"runFromSwimKm"`
	SwimSurplusUsedKm float64 `bson:"swimSurplusUsedKm" json:"swimSurplusUsedKm"`
	SwimFromRunKm     float64 `bson:"swimFromRunKm" json:"swimFromRunKm"`
	RunSurplusUsedKm  float64 `bson:"runSurplusUsedKm" json:"runSurplusUsedKm"`

	RunDeficitKm  float64 `bson:"runDeficitKm" json:"runDeficitKm"`
	SwimDeficitKm float64 `bson:"swimDeficitKm" json:"swimDeficitKm"`
	TotalPenalty  float64 `bson:"totalPenalty" json:"totalPenalty"`
}

// MonthlySummary caches one computed PeriodSummary per (user, month). The
// engine output stays the source of truth: the cache is served only while
// ActivityHash still matches the full input snapshot (activities, events,
// participations, config version) for the month.
type MonthlySummary struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	MonthKey     string             `bson:"monthKey" json:"monthKey"` // "2026-01"
	ActivityHash string             `bson:"activityHash" json:"-"`
	Summary      PeriodSummary      `bson:"summary" json:"summary"`
	ComputedAt   time.Time          `bson:"computedAt" json:"computedAt"`
}
