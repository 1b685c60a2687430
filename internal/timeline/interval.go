package timeline

import "time"

// IntervalStatus marks whether both endpoint dates resolved
type IntervalStatus string

const (
	StatusComplete   IntervalStatus = "complete"
	StatusIncomplete IntervalStatus = "incomplete"
)

// IntervalResult is the elapsed duration of one comparison pair for one project
type IntervalResult struct {
	PairKey  string         `json:"pair_key"`
	FromDate *time.Time     `json:"from_date,omitempty"`
	ToDate   *time.Time     `json:"to_date,omitempty"`
	Days     *int           `json:"days,omitempty"`
	Delta    *int           `json:"delta,omitempty"`
	Status   IntervalStatus `json:"status"`
}

// ComputeInterval builds the interval result for one pair from a project's
// resolved date table. baselineDays is the baseline project's day count for
// the same pair (nil when the baseline is itself incomplete); Delta is only
// populated when both sides are complete. Negative durations pass through
// unmodified.
func ComputeInterval(dates [StepCount]ResolvedDate, pair Pair, baselineDays *int) IntervalResult {
	result := IntervalResult{
		PairKey:  pair.Key,
		FromDate: dates[pair.From].Date,
		ToDate:   dates[pair.To].Date,
		Status:   StatusIncomplete,
	}

	if result.FromDate == nil || result.ToDate == nil {
		return result
	}

	days := DaysBetween(*result.FromDate, *result.ToDate)
	result.Days = &days
	result.Status = StatusComplete

	if baselineDays != nil {
		delta := days - *baselineDays
		result.Delta = &delta
	}

	return result
}

// DaysBetween returns the number of whole days from one date to another.
// Both inputs are truncated to their calendar date (UTC) first, so partial
// days never round the count.
func DaysBetween(from, to time.Time) int {
	return int(truncateDate(to).Sub(truncateDate(from)) / (24 * time.Hour))
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
