package timeline

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-ops-portal/internal/models"
)

func TestWriteCSV(t *testing.T) {
	inputs := []ProjectInput{
		{Project: models.Project{ID: "a", Code: "PRJ-A", Name: "Baseline Site",
			ContractSignedDate: date(2023, 1, 1), ConstructionStartDate: date(2023, 4, 1)}},
		{Project: models.Project{ID: "b", Code: "PRJ-B", Name: "Sparse Site"}},
	}
	res, err := Compare(inputs)
	require.NoError(t, err)

	out, err := WriteCSV(res)
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}), "missing UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(out[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per project")

	header := rows[0]
	assert.Equal(t, "Project Code", header[0])
	assert.Equal(t, "Project Name", header[1])
	assert.Len(t, header, 2+StepCount+len(SummaryPairs()))

	baseRow := rows[1]
	assert.Equal(t, "PRJ-A", baseRow[0])
	assert.Equal(t, "2023-01-01", baseRow[2+1], "contract signed is step index 1")
	assert.Equal(t, "2023-04-01", baseRow[2+6], "construction start is step index 6")

	// signing_to_construction is the second summary column: 90 days
	assert.Equal(t, "90", baseRow[2+StepCount+1])
}

func TestWriteCSV_NullsRenderEmpty(t *testing.T) {
	// A project with no resolvable dates yields empty strings, never a
	// "null"/"undefined" literal
	res, err := Compare([]ProjectInput{
		{Project: models.Project{ID: "a", Code: "EMPTY", Name: "No Dates"}},
	})
	require.NoError(t, err)

	out, err := WriteCSV(res)
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(out[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)

	row := rows[1]
	for i := 2; i < len(row); i++ {
		assert.Empty(t, row[i], "column %d", i)
	}
	assert.NotContains(t, string(out), "null")
	assert.NotContains(t, string(out), "undefined")
}

func TestCSVFilename(t *testing.T) {
	res, err := Compare([]ProjectInput{
		{Project: models.Project{ID: "a", Code: "PRJ-A"}},
	})
	require.NoError(t, err)

	now := time.Date(2023, 7, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "PRJ-A_20230715.csv", CSVFilename(res, now))
}

func TestWriteCSV_Deterministic(t *testing.T) {
	res, err := Compare([]ProjectInput{
		{Project: models.Project{ID: "a", Code: "A", SurveyDate: date(2023, 1, 1)}},
		{Project: models.Project{ID: "b", Code: "B", SurveyDate: date(2023, 2, 1)}},
	})
	require.NoError(t, err)

	first, err := WriteCSV(res)
	require.NoError(t, err)
	second, err := WriteCSV(res)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
	assert.Equal(t, 3, strings.Count(string(first), "\n"))
}
