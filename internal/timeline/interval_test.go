package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func tableWith(dates map[int]*time.Time) [StepCount]ResolvedDate {
	var table [StepCount]ResolvedDate
	for i, d := range dates {
		table[i] = ResolvedDate{Date: d}
	}
	return table
}

func TestComputeInterval_Complete(t *testing.T) {
	pair, ok := PairByKey("signing_to_grid_approval")
	require.True(t, ok)

	table := tableWith(map[int]*time.Time{
		1: date(2023, 1, 1),
		3: date(2023, 2, 1),
	})

	got := ComputeInterval(table, pair, nil)
	assert.Equal(t, StatusComplete, got.Status)
	require.NotNil(t, got.Days)
	assert.Equal(t, 31, *got.Days)
	assert.Nil(t, got.Delta, "no delta without baseline days")
}

func TestComputeInterval_DeltaAgainstBaseline(t *testing.T) {
	pair, ok := PairByKey("signing_to_grid_approval")
	require.True(t, ok)

	table := tableWith(map[int]*time.Time{
		1: date(2023, 1, 10),
		3: date(2023, 1, 30),
	})

	got := ComputeInterval(table, pair, intPtr(31))
	assert.Equal(t, StatusComplete, got.Status)
	require.NotNil(t, got.Days)
	assert.Equal(t, 20, *got.Days)
	require.NotNil(t, got.Delta)
	assert.Equal(t, -11, *got.Delta)
}

func TestComputeInterval_Incomplete(t *testing.T) {
	pair, ok := PairByKey("signing_to_grid_approval")
	require.True(t, ok)

	tests := []struct {
		name  string
		table [StepCount]ResolvedDate
	}{
		{"missing to-date", tableWith(map[int]*time.Time{1: date(2023, 1, 1)})},
		{"missing from-date", tableWith(map[int]*time.Time{3: date(2023, 2, 1)})},
		{"both missing", tableWith(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeInterval(tt.table, pair, intPtr(31))
			assert.Equal(t, StatusIncomplete, got.Status)
			assert.Nil(t, got.Days)
			assert.Nil(t, got.Delta)
		})
	}
}

func TestComputeInterval_NegativeDurationPassesThrough(t *testing.T) {
	// Inverted endpoints are data-quality noise, not an error: the negative
	// value flows through untouched
	pair, ok := PairByKey("signing_to_grid_approval")
	require.True(t, ok)

	table := tableWith(map[int]*time.Time{
		1: date(2023, 3, 15),
		3: date(2023, 3, 1),
	})

	got := ComputeInterval(table, pair, nil)
	assert.Equal(t, StatusComplete, got.Status)
	require.NotNil(t, got.Days)
	assert.Equal(t, -14, *got.Days)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", *date(2023, 1, 1), *date(2023, 1, 1), 0},
		{"one month", *date(2023, 1, 1), *date(2023, 2, 1), 31},
		{"partial days truncate", time.Date(2023, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2023, 1, 2, 1, 0, 0, 0, time.UTC), 1},
		{"negative", *date(2023, 1, 10), *date(2023, 1, 5), -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}
