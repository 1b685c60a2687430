package timeline

import (
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

func TestResolveStepDate_DirectFieldWins(t *testing.T) {
	// A populated project field must win even when a matching document exists
	p := &models.Project{SurveyDate: date(2023, 3, 1)}
	docs := []models.ProjectDocument{
		{TypeCode: models.DocTypeGridApplication, SubmittedAt: date(2023, 1, 1), Current: true},
	}

	got := ResolveStepDate(p, docs, Steps[0])
	require.NotNil(t, got.Date)
	assert.Equal(t, *date(2023, 3, 1), *got.Date)
	assert.Empty(t, got.DocCode)
}

func TestResolveStepDate_FallbackToDocument(t *testing.T) {
	// structural_certification: direct field empty, code-matched document supplies
	// its submitted date
	p := &models.Project{}
	docs := []models.ProjectDocument{
		{TypeCode: models.DocTypeStructuralCert, SubmittedAt: date(2023, 5, 10), IssuedAt: date(2023, 6, 1), Current: true},
	}

	step := Steps[4]
	got := ResolveStepDate(p, docs, step)
	require.NotNil(t, got.Date)
	assert.Equal(t, *date(2023, 5, 10), *got.Date, "fallback reads the submitted date, not issued")
	assert.Equal(t, models.DocTypeStructuralCert, got.DocCode)
}

func TestResolveStepDate_FallbackFieldPresentSkipsDocs(t *testing.T) {
	p := &models.Project{StructuralCertDate: date(2023, 4, 1)}
	docs := []models.ProjectDocument{
		{TypeCode: models.DocTypeStructuralCert, SubmittedAt: date(2023, 5, 10), Current: true},
	}

	got := ResolveStepDate(p, docs, Steps[4])
	require.NotNil(t, got.Date)
	assert.Equal(t, *date(2023, 4, 1), *got.Date)
	assert.Empty(t, got.DocCode)
}

func TestResolveStepDate_DocumentOnly(t *testing.T) {
	p := &models.Project{}

	tests := []struct {
		name string
		docs []models.ProjectDocument
		step Step
		want *time.Time
		code string
	}{
		{
			name: "code match reads issued date",
			docs: []models.ProjectDocument{
				{TypeCode: models.DocTypeGridApproval, SubmittedAt: date(2023, 1, 5), IssuedAt: date(2023, 2, 20), Current: true},
			},
			step: Steps[3],
			want: date(2023, 2, 20),
			code: models.DocTypeGridApproval,
		},
		{
			name: "label contains match when no code matches",
			docs: []models.ProjectDocument{
				{TypeCode: "LEGACY-07", TypeLabel: "Utility Grid Connection Approval Letter", IssuedAt: date(2023, 3, 15), Current: true},
			},
			step: Steps[3],
			want: date(2023, 3, 15),
			code: "LEGACY-07",
		},
		{
			name: "no match yields nil",
			docs: []models.ProjectDocument{
				{TypeCode: models.DocTypeSubsidyApp, TypeLabel: "Subsidy Application", SubmittedAt: date(2023, 1, 1), Current: true},
			},
			step: Steps[3],
			want: nil,
		},
		{
			name: "superseded and deleted documents are skipped",
			docs: []models.ProjectDocument{
				{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 1, 1), Current: false},
				{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 2, 2), Current: true, Deleted: true},
			},
			step: Steps[3],
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStepDate(p, tt.docs, tt.step)
			if tt.want == nil {
				assert.Nil(t, got.Date)
				return
			}
			require.NotNil(t, got.Date)
			assert.Equal(t, *tt.want, *got.Date)
			assert.Equal(t, tt.code, got.DocCode)
		})
	}
}

func TestResolveStepDate_FirstMatchInInputOrderWins(t *testing.T) {
	// Two documents satisfy the same rule: whichever the store returned first
	// wins, no recency tie-break
	p := &models.Project{}
	docs := []models.ProjectDocument{
		{ID: 1, TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 1, 1), Current: true},
		{ID: 2, TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 9, 9), Current: true},
	}

	got := ResolveStepDate(p, docs, Steps[3])
	require.NotNil(t, got.Date)
	assert.Equal(t, *date(2023, 1, 1), *got.Date)
}

func TestResolveStepDate_CodeMatchBeatsEarlierLabelMatch(t *testing.T) {
	// The code pass runs over all documents before any label matching
	p := &models.Project{}
	docs := []models.ProjectDocument{
		{ID: 1, TypeLabel: "Grid Connection Approval", IssuedAt: date(2023, 1, 1), Current: true},
		{ID: 2, TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 5, 5), Current: true},
	}

	got := ResolveStepDate(p, docs, Steps[3])
	require.NotNil(t, got.Date)
	assert.Equal(t, *date(2023, 5, 5), *got.Date)
	assert.Equal(t, models.DocTypeGridApproval, got.DocCode)
}

func TestResolveDates_Idempotent(t *testing.T) {
	p := &models.Project{
		SurveyDate:         date(2023, 1, 1),
		ContractSignedDate: date(2023, 2, 1),
	}
	docs := []models.ProjectDocument{
		{TypeCode: models.DocTypeGridApproval, IssuedAt: date(2023, 3, 1), Current: true},
	}

	first := ResolveDates(p, docs)
	second := ResolveDates(p, docs)
	assert.Equal(t, first, second)
}
