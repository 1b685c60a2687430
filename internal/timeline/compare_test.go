package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-ops-portal/internal/models"
)

func TestCompare_RequiresProjects(t *testing.T) {
	_, err := Compare(nil)
	assert.Error(t, err)
}

func TestCompare_BaselineAndDelta(t *testing.T) {
	// Baseline signs 2023-01-01, grid approval 2023-02-01 (31 days);
	// comparison project signs 2023-01-10, approval 2023-01-30 (20 days, delta -11)
	inputs := []ProjectInput{
		{
			Project: models.Project{ID: "a", Code: "PRJ-A", Name: "Baseline Site", ContractSignedDate: date(2023, 1, 1)},
			Documents: []models.ProjectDocument{
				{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 2, 1), Current: true},
			},
		},
		{
			Project: models.Project{ID: "b", Code: "PRJ-B", Name: "Other Site", ContractSignedDate: date(2023, 1, 10)},
			Documents: []models.ProjectDocument{
				{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 1, 30), Current: true},
			},
		},
	}

	res, err := Compare(inputs)
	require.NoError(t, err)
	require.Len(t, res.Projects, 2)

	base := res.Baseline()
	require.NotNil(t, base)
	assert.True(t, base.Baseline)
	assert.Equal(t, "PRJ-A", base.Code)

	baseIv := base.Intervals["signing_to_grid_approval"]
	require.NotNil(t, baseIv.Days)
	assert.Equal(t, 31, *baseIv.Days)
	assert.Equal(t, StatusComplete, baseIv.Status)

	otherIv := res.Projects[1].Intervals["signing_to_grid_approval"]
	require.NotNil(t, otherIv.Days)
	assert.Equal(t, 20, *otherIv.Days)
	require.NotNil(t, otherIv.Delta)
	assert.Equal(t, -11, *otherIv.Delta)
	assert.Equal(t, StatusComplete, otherIv.Status)
}

func TestCompare_NoDeltaWhenBaselineIncomplete(t *testing.T) {
	inputs := []ProjectInput{
		{Project: models.Project{ID: "a", Code: "PRJ-A"}},
		{
			Project: models.Project{ID: "b", Code: "PRJ-B", ContractSignedDate: date(2023, 1, 10)},
			Documents: []models.ProjectDocument{
				{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 1, 30), Current: true},
			},
		},
	}

	res, err := Compare(inputs)
	require.NoError(t, err)

	iv := res.Projects[1].Intervals["signing_to_grid_approval"]
	assert.Equal(t, StatusComplete, iv.Status)
	require.NotNil(t, iv.Days)
	assert.Nil(t, iv.Delta, "baseline incomplete, delta must stay nil")
}

func TestCompare_StatsOverNonBaselineOnly(t *testing.T) {
	inputs := []ProjectInput{
		{Project: models.Project{ID: "base", Code: "B", SurveyDate: date(2023, 1, 1), ContractSignedDate: date(2023, 1, 11)}},
		{Project: models.Project{ID: "p1", Code: "P1", SurveyDate: date(2023, 1, 1), ContractSignedDate: date(2023, 1, 21)}},
		{Project: models.Project{ID: "p2", Code: "P2", SurveyDate: date(2023, 1, 1), ContractSignedDate: date(2023, 1, 31)}},
	}

	res, err := Compare(inputs)
	require.NoError(t, err)

	stats := res.Stats["initial_survey_to_contract_signed"]
	assert.Equal(t, 2, stats.Count, "baseline excluded from the sample")
	require.NotNil(t, stats.Average)
	assert.Equal(t, 25, *stats.Average)
	require.NotNil(t, stats.Min)
	assert.Equal(t, 20, *stats.Min)
	require.NotNil(t, stats.Max)
	assert.Equal(t, 30, *stats.Max)
}

func TestCompare_AggregatesOnlyFirstTenConsecutivePairs(t *testing.T) {
	inputs := []ProjectInput{
		{Project: models.Project{ID: "a", Code: "A"}},
		{Project: models.Project{ID: "b", Code: "B"}},
	}

	res, err := Compare(inputs)
	require.NoError(t, err)

	consecutive := ConsecutivePairs()
	require.Greater(t, len(consecutive), AggregatedPairCount)

	for _, pair := range consecutive[:AggregatedPairCount] {
		_, ok := res.Stats[pair.Key]
		assert.True(t, ok, "expected stats entry for %s", pair.Key)
	}
	for _, pair := range consecutive[AggregatedPairCount:] {
		_, ok := res.Stats[pair.Key]
		assert.False(t, ok, "pair %s beyond the aggregation window", pair.Key)
	}
	for _, pair := range SummaryPairs() {
		_, ok := res.Stats[pair.Key]
		assert.False(t, ok, "summary pair %s must not be aggregated", pair.Key)
	}
}

func TestCompare_Idempotent(t *testing.T) {
	inputs := []ProjectInput{
		{Project: models.Project{ID: "a", Code: "A", SurveyDate: date(2023, 1, 1), ContractSignedDate: date(2023, 2, 1)}},
		{Project: models.Project{ID: "b", Code: "B", SurveyDate: date(2023, 1, 5), ContractSignedDate: date(2023, 1, 25)}},
	}

	first, err := Compare(inputs)
	require.NoError(t, err)
	second, err := Compare(inputs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
