package engine

import (
	"math"

	"fitkpi/challenge-app/internal/domain"
)

// summarize folds the counted distances into the period summary: totals per
// discipline, progress against the gender targets, cross-discipline
// conversion, final deficits and the monetary penalty.
func summarize(activities []ValidatedActivity, targets domain.DisciplineTargets, cfg domain.ChallengeConfig) domain.PeriodSummary {
	var runCounted, swimCounted float64
	for i := range activities {
		v := &activities[i]
		if !v.Valid {
			continue
		}
		switch v.Class {
		case ClassRun:
			runCounted += v.CountedKm
		case ClassSwim:
			swimCounted += v.CountedKm
		}
	}

	s := domain.PeriodSummary{
		RunCountedKm:  round1(runCounted),
		SwimCountedKm: round1(swimCounted),
		RunTargetKm:   targets.RunKm,
		SwimTargetKm:  targets.SwimKm,
		// Progress is uncapped: overachievement reads as >100%.
		RunProgressPct:  round1(runCounted / targets.RunKm * 100),
		SwimProgressPct: round1(swimCounted / targets.SwimKm * 100),
	}

	runDeficit := clamp0(targets.RunKm - runCounted)
	swimDeficit := clamp0(targets.SwimKm - swimCounted)
	runSurplus := clamp0(runCounted - targets.RunKm)
	swimSurplus := clamp0(swimCounted - targets.SwimKm)

	// Conversion runs only when exactly one discipline is short. It never
	// converts more surplus than the deficit needs.
	switch {
	case runDeficit > 0 && swimSurplus > 0:
		offset := math.Min(runDeficit, swimSurplus*cfg.Conversion.SwimToRun)
		s.RunFromSwimKm = round1(offset)
		s.SwimSurplusUsedKm = round1(offset / cfg.Conversion.SwimToRun)
		runDeficit = clamp0(runDeficit - offset)
	case swimDeficit > 0 && runSurplus > 0:
		offset := math.Min(swimDeficit, runSurplus*cfg.Conversion.RunToSwim)
		s.SwimFromRunKm = round1(offset)
		s.RunSurplusUsedKm = round1(offset / cfg.Conversion.RunToSwim)
		swimDeficit = clamp0(swimDeficit - offset)
	}

	s.RunDeficitKm = round1(runDeficit)
	s.SwimDeficitKm = round1(swimDeficit)
	s.TotalPenalty = clamp0(s.RunDeficitKm*cfg.Penalties.RunPerKm + s.SwimDeficitKm*cfg.Penalties.SwimPerKm)
	return s
}

func clamp0(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// round1 rounds to one decimal, the precision every displayed distance and
// the penalty's deficit inputs use.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
