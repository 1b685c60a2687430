package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-ops-portal/internal/models"
)

func comparisonFixture(t *testing.T) *Result {
	t.Helper()
	res, err := Compare([]ProjectInput{
		{Project: models.Project{ID: "a", Code: "PRJ-A", Name: "Baseline Site",
			ContractSignedDate: date(2023, 1, 1), ConstructionStartDate: date(2023, 4, 1)}},
		{Project: models.Project{ID: "b", Code: "PRJ-B", Name: "Other Site",
			ContractSignedDate: date(2023, 1, 10), ConstructionStartDate: date(2023, 3, 1)}},
	})
	require.NoError(t, err)
	return res
}

func TestRenderNarrative_Structure(t *testing.T) {
	out := RenderNarrative(comparisonFixture(t), nil)

	assert.Contains(t, out, "# Project Timeline Comparison")
	assert.Contains(t, out, "Baseline: **PRJ-A**")
	assert.Contains(t, out, "## Overall Duration")
	assert.Contains(t, out, "## Stage Comparison")
	assert.Contains(t, out, "## Summary Intervals")

	// Bar chart lives in a fenced block and uses block characters
	assert.Contains(t, out, "```\n")
	assert.Contains(t, out, "█")

	// Pipe table with a signed delta: PRJ-B signed->construction is 50 days
	// against the baseline's 90
	assert.Contains(t, out, "| PRJ-B | 50 | -40 |")
	assert.Contains(t, out, "| PRJ-A | 90 | baseline |")
}

func TestRenderNarrative_PairSelection(t *testing.T) {
	res := comparisonFixture(t)

	out := RenderNarrative(res, []string{"signing_to_construction"})
	assert.Contains(t, out, "### Signing to Construction Start")
	assert.NotContains(t, out, "### Signing to Grid Approval")
	assert.NotContains(t, out, "### Initial Survey")

	// Unknown keys are ignored rather than erroring
	out = RenderNarrative(res, []string{"no_such_pair"})
	assert.NotContains(t, out, "###")
}

func TestRenderNarrative_IncompleteRowsRenderDashes(t *testing.T) {
	res, err := Compare([]ProjectInput{
		{Project: models.Project{ID: "a", Code: "PRJ-A", ContractSignedDate: date(2023, 1, 1), ConstructionStartDate: date(2023, 4, 1)}},
		{Project: models.Project{ID: "b", Code: "PRJ-B"}},
	})
	require.NoError(t, err)

	out := RenderNarrative(res, []string{"signing_to_construction"})
	assert.Contains(t, out, "| PRJ-B | - | - |")
	assert.Contains(t, out, "(incomplete)")
}

func TestRenderNarrative_Deterministic(t *testing.T) {
	res := comparisonFixture(t)
	first := RenderNarrative(res, nil)
	second := RenderNarrative(res, nil)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "# "))
}
