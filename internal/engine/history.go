package engine

import "time"

// MonthPenalty is one month's entry in the season-level penalty report.
type MonthPenalty struct {
	MonthKey string  `json:"monthKey"` // "2026-01"
	Label    string  `json:"monthLabel"`
	Penalty  float64 `json:"penalty"`
}

// History evaluates every calendar month from the challenge start through the
// month containing `through`, each fully independently: no penalty or credit
// carries across months. `through` is an explicit parameter so results are
// deterministic; the engine never reads the system clock. Activities may be
// the user's whole history: each month filters its own slice.
func History(in Input, through time.Time) ([]MonthPenalty, float64, error) {
	if in.Location == nil {
		return nil, 0, &ConfigError{Field: "location", Reason: "time location is required"}
	}
	cfg := in.Config
	if cfg.StartYear == 0 || cfg.StartMonth < time.January || cfg.StartMonth > time.December {
		return nil, 0, &ConfigError{Field: "start", Reason: "challenge start month is not set"}
	}

	year, month := cfg.StartYear, cfg.StartMonth
	endYear, endMonth, _ := through.In(in.Location).Date()

	var history []MonthPenalty
	var total float64
	for year < endYear || (year == endYear && month <= endMonth) {
		monthIn := in
		monthIn.Activities = FilterMonth(in.Activities, year, month, in.Location)
		res, err := Evaluate(monthIn)
		if err != nil {
			return nil, 0, err
		}

		start, _ := MonthRange(year, month, in.Location)
		history = append(history, MonthPenalty{
			MonthKey: MonthKey(year, month),
			Label:    start.Format("January 2006"),
			Penalty:  res.Summary.TotalPenalty,
		})
		total += res.Summary.TotalPenalty

		if month == time.December {
			year, month = year+1, time.January
		} else {
			month++
		}
	}
	return history, total, nil
}
