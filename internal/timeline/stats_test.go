package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeResults(days ...int) []IntervalResult {
	out := make([]IntervalResult, len(days))
	for i, d := range days {
		v := d
		out[i] = IntervalResult{Days: &v, Status: StatusComplete}
	}
	return out
}

func TestAggregatePair_EmptySample(t *testing.T) {
	got := AggregatePair("p", nil)
	assert.Equal(t, 0, got.Count)
	assert.Nil(t, got.Average)
	assert.Nil(t, got.Median)
	assert.Nil(t, got.Min)
	assert.Nil(t, got.Max)
}

func TestAggregatePair_FiltersIncomplete(t *testing.T) {
	results := append(completeResults(10, 20), IntervalResult{Status: StatusIncomplete})
	got := AggregatePair("p", results)
	assert.Equal(t, 2, got.Count)
	require.NotNil(t, got.Average)
	assert.Equal(t, 15, *got.Average)
}

func TestAggregatePair_Median(t *testing.T) {
	tests := []struct {
		name string
		days []int
		want int
	}{
		{"even count averages the middle pair", []int{10, 20, 30, 40}, 25},
		{"odd count takes the middle", []int{10, 20, 30, 40, 50}, 30},
		{"unsorted input", []int{40, 10, 30, 20}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregatePair("p", completeResults(tt.days...))
			require.NotNil(t, got.Median)
			assert.Equal(t, tt.want, *got.Median)
		})
	}
}

func TestAggregatePair_AverageRoundsToNearest(t *testing.T) {
	// (10 + 11 + 11) / 3 = 10.67 -> 11
	got := AggregatePair("p", completeResults(10, 11, 11))
	require.NotNil(t, got.Average)
	assert.Equal(t, 11, *got.Average)
}

func TestAggregatePair_MinMaxUnrounded(t *testing.T) {
	got := AggregatePair("p", completeResults(-3, 7, 42))
	require.NotNil(t, got.Min)
	require.NotNil(t, got.Max)
	assert.Equal(t, -3, *got.Min)
	assert.Equal(t, 42, *got.Max)
	assert.Equal(t, 3, got.Count)
}
