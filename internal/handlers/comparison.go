package handlers

import (
	"fmt"
	"net/http"
	"solar-ops-portal/internal/metrics"
	"solar-ops-portal/internal/models"
	"solar-ops-portal/internal/timeline"
	"time"

	"github.com/gin-gonic/gin"
)

// ComparisonStore is the project/document access the comparison endpoints need.
// Both database backends satisfy it.
type ComparisonStore interface {
	GetProjectsByIDs(ids []string) ([]models.Project, error)
	GetDocumentsForProjects(projectIDs []string) (map[string][]models.ProjectDocument, error)
}

// ComparisonHandler serves timeline comparison requests
type ComparisonHandler struct {
	store ComparisonStore
}

// NewComparisonHandler creates a new comparison handler
func NewComparisonHandler(store ComparisonStore) *ComparisonHandler {
	return &ComparisonHandler{store: store}
}

// comparisonRequest selects the projects to compare. The first ID is the
// baseline.
type comparisonRequest struct {
	ProjectIDs []string `json:"project_ids" binding:"required"`
	PairKeys   []string `json:"pair_keys"` // report only; empty means all pairs
}

// Compare runs a timeline comparison and returns the full result as JSON
func (h *ComparisonHandler) Compare(c *gin.Context) {
	result, _, ok := h.runComparison(c, "json")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompareCSV runs a comparison and returns a CSV download
func (h *ComparisonHandler) CompareCSV(c *gin.Context) {
	result, _, ok := h.runComparison(c, "csv")
	if !ok {
		return
	}

	data, err := timeline.WriteCSV(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := timeline.CSVFilename(result, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// CompareReport runs a comparison and returns the Markdown narrative
func (h *ComparisonHandler) CompareReport(c *gin.Context) {
	result, req, ok := h.runComparison(c, "report")
	if !ok {
		return
	}

	report := timeline.RenderNarrative(result, req.PairKeys)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
}

// runComparison binds the request, loads data and computes the comparison
func (h *ComparisonHandler) runComparison(c *gin.Context, format string) (*timeline.Result, *comparisonRequest, bool) {
	var req comparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	if len(req.ProjectIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_ids must not be empty"})
		return nil, nil, false
	}

	start := time.Now()

	projects, err := h.store.GetProjectsByIDs(req.ProjectIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	if len(projects) != len(req.ProjectIDs) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("found %d of %d requested projects", len(projects), len(req.ProjectIDs)),
		})
		return nil, nil, false
	}

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	docsByProject, err := h.store.GetDocumentsForProjects(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	inputs := make([]timeline.ProjectInput, len(projects))
	for i := range projects {
		inputs[i] = timeline.ProjectInput{
			Project:   projects[i],
			Documents: docsByProject[projects[i].ID],
		}
	}

	result, err := timeline.Compare(inputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	metrics.RecordComparison(format, time.Since(start))
	return result, &req, true
}
