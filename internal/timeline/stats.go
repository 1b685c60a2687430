package timeline

import (
	"math"
	"sort"
)

// PairStats are cross-project sample statistics for one comparison pair,
// computed over the non-baseline projects with complete intervals
type PairStats struct {
	PairKey string `json:"pair_key"`
	Count   int    `json:"count"`
	Average *int   `json:"average,omitempty"`
	Median  *int   `json:"median,omitempty"`
	Min     *int   `json:"min,omitempty"`
	Max     *int   `json:"max,omitempty"`
}

// AggregatePair computes statistics for one pair. Incomplete results are
// filtered out; an empty sample yields Count 0 and nil statistic fields.
func AggregatePair(pairKey string, results []IntervalResult) PairStats {
	stats := PairStats{PairKey: pairKey}

	var values []int
	for _, r := range results {
		if r.Status == StatusComplete && r.Days != nil {
			values = append(values, *r.Days)
		}
	}

	stats.Count = len(values)
	if stats.Count == 0 {
		return stats
	}

	sum := 0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	avg := roundToInt(float64(sum) / float64(len(values)))
	med := roundToInt(medianOf(values))

	stats.Average = &avg
	stats.Median = &med
	stats.Min = &min
	stats.Max = &max
	return stats
}

// medianOf returns the standard two-case median of a sample
func medianOf(values []int) float64 {
	temp := make([]int, len(values))
	copy(temp, values)
	sort.Ints(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return float64(temp[n/2-1]+temp[n/2]) / 2.0
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}
