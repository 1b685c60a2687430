package search

import (
	"encoding/json"
	"fmt"
	"solar-ops-portal/internal/models"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query         string
	Stages        []string
	Status        string
	MinCapacityKw *float64
	MaxCapacityKw *float64
	SortBy        string
	Limit         int64
}

// FilterSearch performs advanced search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Project, error) {
	var filters []string

	// Stage filter
	if len(params.Stages) > 0 {
		stageFilters := make([]string, len(params.Stages))
		for i, stage := range params.Stages {
			stageFilters[i] = fmt.Sprintf("stage = '%s'", stage)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(stageFilters, " OR ")))
	}

	// Status filter
	if params.Status != "" {
		filters = append(filters, fmt.Sprintf("status = '%s'", params.Status))
	}

	// Capacity range filter
	if params.MinCapacityKw != nil {
		filters = append(filters, fmt.Sprintf("capacity_kw >= %g", *params.MinCapacityKw))
	}
	if params.MaxCapacityKw != nil {
		filters = append(filters, fmt.Sprintf("capacity_kw <= %g", *params.MaxCapacityKw))
	}

	// Combine filters
	var filterStr string
	if len(filters) > 0 {
		filterStr = strings.Join(filters, " AND ")
	}

	// Determine sort order
	var sort []string
	if params.SortBy != "" {
		sort = []string{params.SortBy}
	}

	// Default limit
	if params.Limit == 0 {
		params.Limit = 20
	}

	// Perform search
	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}

	if filterStr != "" {
		searchReq.Filter = filterStr
	}

	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	// Convert hits to projects
	var projects []models.Project
	for _, hit := range searchRes.Hits {
		// Convert hit to JSON then to Project struct
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var project models.Project
		if err := json.Unmarshal(hitJSON, &project); err != nil {
			continue
		}

		projects = append(projects, project)
	}

	return projects, nil
}
