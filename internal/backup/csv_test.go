package backup

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-ops-portal/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestExportProjectsCSV_RoundTrip(t *testing.T) {
	capacity := 49.5
	projects := []models.Project{
		{
			Code:               "PRJ-A",
			Name:               "North Field Array",
			SiteAddress:        "12 Ridge Road",
			CapacityKw:         &capacity,
			Stage:              models.StageConstruction,
			SurveyDate:         date(2023, 1, 5),
			ContractSignedDate: date(2023, 2, 1),
			Status:             models.ProjectStatusActive,
		},
		{
			Code:   "PRJ-B",
			Name:   "Depot Rooftop",
			Stage:  models.StageSurvey,
			Status: models.ProjectStatusActive,
		},
	}

	data, err := ExportProjectsCSV(projects)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM), "export must start with UTF-8 BOM")

	parsed, rowErrors, err := ParseProjectsCSV(string(data))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, parsed, 2)

	assert.Equal(t, "PRJ-A", parsed[0].Code)
	assert.Equal(t, "North Field Array", parsed[0].Name)
	require.NotNil(t, parsed[0].CapacityKw)
	assert.Equal(t, 49.5, *parsed[0].CapacityKw)
	assert.Equal(t, models.StageConstruction, parsed[0].Stage)
	require.NotNil(t, parsed[0].SurveyDate)
	assert.Equal(t, "2023-01-05", parsed[0].SurveyDate.Format("2006-01-02"))

	assert.Nil(t, parsed[1].CapacityKw)
	assert.Nil(t, parsed[1].SurveyDate)
}

func TestParseProjectsCSV_RejectsBadRowsKeepsGood(t *testing.T) {
	payload := "code,name,site_address,capacity_kw,stage,survey_date,contract_signed_date,structural_cert_date,electrical_cert_date,construction_start_date,meter_installed_date,status\n" +
		"PRJ-A,Good Project,,,survey,,,,,,,active\n" +
		",Missing Code,,,survey,,,,,,,active\n" +
		"PRJ-B,Bad Date,,,survey,not-a-date,,,,,,active\n" +
		"PRJ-C,Bad Stage,,,warp,,,,,,,active\n" +
		"PRJ-D,Also Good,,12.5,contracted,2023-03-01,,,,,,\n"

	projects, rowErrors, err := ParseProjectsCSV(payload)
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, "PRJ-A", projects[0].Code)
	assert.Equal(t, "PRJ-D", projects[1].Code)
	// Blank status defaults to active
	assert.Equal(t, models.ProjectStatusActive, projects[1].Status)

	require.Len(t, rowErrors, 3)
	assert.Equal(t, 3, rowErrors[0].Line)
	assert.Contains(t, rowErrors[0].Message, "code is required")
	assert.Contains(t, rowErrors[1].Message, "survey_date")
	assert.Contains(t, rowErrors[2].Message, "stage")
}

func TestParseProjectsCSV_BadHeader(t *testing.T) {
	payload := "id,name\n1,whatever\n"

	_, _, err := ParseProjectsCSV(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestParseProjectsCSV_StripsBOM(t *testing.T) {
	payload := string(utf8BOM) +
		"code,name,site_address,capacity_kw,stage,survey_date,contract_signed_date,structural_cert_date,electrical_cert_date,construction_start_date,meter_installed_date,status\n" +
		"PRJ-A,With BOM,,,survey,,,,,,,active\n"

	projects, rowErrors, err := ParseProjectsCSV(payload)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, projects, 1)
	assert.Equal(t, "PRJ-A", projects[0].Code)
}

func TestExportDocumentsCSV_MapsProjectCodes(t *testing.T) {
	docs := []models.ProjectDocument{
		{ProjectID: "id-a", TypeCode: models.DocTypeGridApplication, SubmittedAt: date(2023, 4, 1), Current: true},
		{ProjectID: "id-missing", TypeCode: models.DocTypeGridApproval, Current: true},
	}
	codeByID := map[string]string{"id-a": "PRJ-A"}

	data, err := ExportDocumentsCSV(docs, codeByID)
	require.NoError(t, err)

	rows, rowErrors, err := ParseDocumentsCSV(string(data))
	require.NoError(t, err)
	assert.Empty(t, rowErrors)

	// The document with an unmapped project is dropped
	require.Len(t, rows, 1)
	assert.Equal(t, "PRJ-A", rows[0].ProjectCode)
	assert.Equal(t, models.DocTypeGridApplication, rows[0].Document.TypeCode)
	require.NotNil(t, rows[0].Document.SubmittedAt)
	assert.Equal(t, "2023-04-01", rows[0].Document.SubmittedAt.Format("2006-01-02"))
}

func TestParseDocumentsCSV_RequiresTypeInfo(t *testing.T) {
	payload := "project_code,type_code,type_label,title,submitted_at,issued_at\n" +
		"PRJ-A,,,Untyped Document,,\n" +
		"PRJ-A,,Grid Connection Approval,Labelled Only,,2023-05-10\n"

	rows, rowErrors, err := ParseDocumentsCSV(payload)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Grid Connection Approval", rows[0].Document.TypeLabel)

	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0].Message, "type_code or type_label")
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2023, 7, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "projects_20230715.csv", ExportFilename("projects", now))
	assert.Equal(t, "documents_20230715.csv", ExportFilename("documents", now))
}
