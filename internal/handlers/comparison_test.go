package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-ops-portal/internal/models"
)

// fakeComparisonStore serves projects from memory, preserving request order
// the way both database backends do
type fakeComparisonStore struct {
	projects map[string]models.Project
	docs     map[string][]models.ProjectDocument
}

func (f *fakeComparisonStore) GetProjectsByIDs(ids []string) ([]models.Project, error) {
	out := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeComparisonStore) GetDocumentsForProjects(projectIDs []string) (map[string][]models.ProjectDocument, error) {
	out := make(map[string][]models.ProjectDocument, len(projectIDs))
	for _, id := range projectIDs {
		if docs, ok := f.docs[id]; ok {
			out[id] = docs
		}
	}
	return out, nil
}

func comparisonDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newComparisonRouter(store *fakeComparisonStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewComparisonHandler(store)
	r := gin.New()
	r.POST("/api/compare", h.Compare)
	r.POST("/api/compare/csv", h.CompareCSV)
	r.POST("/api/compare/report", h.CompareReport)
	return r
}

func postCompare(r *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func twoProjectStore() *fakeComparisonStore {
	return &fakeComparisonStore{
		projects: map[string]models.Project{
			"base": {
				ID: "base", Code: "SOL-001", Name: "Baseline Site",
				SurveyDate:         comparisonDate(2023, 1, 1),
				ContractSignedDate: comparisonDate(2023, 1, 21),
			},
			"other": {
				ID: "other", Code: "SOL-002", Name: "Other Site",
				SurveyDate:         comparisonDate(2023, 2, 1),
				ContractSignedDate: comparisonDate(2023, 2, 11),
			},
		},
		docs: map[string][]models.ProjectDocument{},
	}
}

func TestCompareEndpoint_BaselineAndDelta(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare", map[string]interface{}{
		"project_ids": []string{"base", "other"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Projects []struct {
			Code      string `json:"code"`
			Baseline  bool   `json:"baseline"`
			Intervals map[string]struct {
				Days   *int   `json:"days"`
				Delta  *int   `json:"delta"`
				Status string `json:"status"`
			} `json:"intervals"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 2)

	assert.Equal(t, "SOL-001", resp.Projects[0].Code)
	assert.True(t, resp.Projects[0].Baseline)
	assert.False(t, resp.Projects[1].Baseline)

	baseIv := resp.Projects[0].Intervals["initial_survey_to_contract_signed"]
	require.NotNil(t, baseIv.Days)
	assert.Equal(t, 20, *baseIv.Days)

	otherIv := resp.Projects[1].Intervals["initial_survey_to_contract_signed"]
	require.NotNil(t, otherIv.Days)
	require.NotNil(t, otherIv.Delta)
	assert.Equal(t, 10, *otherIv.Days)
	assert.Equal(t, -10, *otherIv.Delta)
}

func TestCompareEndpoint_MissingProjectIs404(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare", map[string]interface{}{
		"project_ids": []string{"base", "nope"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "found 1 of 2 requested projects")
}

func TestCompareEndpoint_MissingIDsIs400(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareCSVEndpoint_DownloadHeaders(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare/csv", map[string]interface{}{
		"project_ids": []string{"base", "other"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "SOL-001_")
	assert.Contains(t, disposition, ".csv")

	body := w.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(body), "SOL-002")
}

func TestCompareReportEndpoint_Markdown(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare/report", map[string]interface{}{
		"project_ids": []string{"base", "other"},
		"pair_keys":   []string{"initial_survey_to_contract_signed"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")

	report := w.Body.String()
	assert.Contains(t, report, "Baseline: **SOL-001**")
	assert.Contains(t, report, "Initial Survey → Contract Signed")
	assert.Contains(t, report, "| SOL-002 | 10 | -10 |")
}

func TestCompareEndpoint_SingleProjectBaselineOnly(t *testing.T) {
	r := newComparisonRouter(twoProjectStore())

	w := postCompare(r, "/api/compare", map[string]interface{}{
		"project_ids": []string{"other"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"baseline":true`)
}
