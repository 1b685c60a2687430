package search

import (
	"solar-ops-portal/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "projects",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"code",
		"name",
		"site_address",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"stage",
		"status",
		"capacity_kw",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"code",
		"capacity_kw",
		"contract_signed_date",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexProject indexes a single project
func (s *SearchClient) IndexProject(project *models.Project) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Project{*project})
	return err
}

// IndexProjects indexes multiple projects
func (s *SearchClient) IndexProjects(projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(projects)
	return err
}

// DeleteProject removes a project from the index
func (s *SearchClient) DeleteProject(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// SearchRequest represents advanced search parameters
type SearchRequest struct {
	Query                string
	Limit                int64
	Offset               int64
	Filter               []string
	Sort                 []string
	FacetsFilter         []string
	AttributesToRetrieve []string
}

// SearchResult represents search results with facets
type SearchResult struct {
	Hits           []models.Project
	TotalHits      int64
	Facets         map[string]interface{}
	ProcessingTime int64
}

// Search searches for projects with basic options
func (s *SearchClient) Search(query string, limit int64) ([]models.Project, error) {
	result, err := s.AdvancedSearch(SearchRequest{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// AdvancedSearch performs advanced search with facets and filters
func (s *SearchClient) AdvancedSearch(req SearchRequest) (*SearchResult, error) {
	if req.Limit == 0 {
		req.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	// Add filters
	if len(req.Filter) > 0 {
		filterStr := ""
		for i, f := range req.Filter {
			if i > 0 {
				filterStr += " AND "
			}
			filterStr += f
		}
		searchReq.Filter = filterStr
	}

	// Add sorting
	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}

	// Add facets
	if len(req.FacetsFilter) > 0 {
		searchReq.Facets = req.FacetsFilter
	}

	// Add attributes to retrieve
	if len(req.AttributesToRetrieve) > 0 {
		searchReq.AttributesToRetrieve = req.AttributesToRetrieve
	}

	searchRes, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		project := parseProjectFromHit(hit)
		projects = append(projects, project)
	}

	var facets map[string]interface{}
	if searchRes.FacetDistribution != nil {
		facets, _ = searchRes.FacetDistribution.(map[string]interface{})
	}

	result := &SearchResult{
		Hits:           projects,
		TotalHits:      searchRes.EstimatedTotalHits,
		Facets:         facets,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}

	return result, nil
}

// parseProjectFromHit converts a search hit to a Project
func parseProjectFromHit(hit interface{}) models.Project {
	hitMap := hit.(map[string]interface{})
	project := models.Project{
		ID:          getString(hitMap, "id"),
		Code:        getString(hitMap, "code"),
		Name:        getString(hitMap, "name"),
		SiteAddress: getString(hitMap, "site_address"),
		Stage:       models.ProjectStage(getString(hitMap, "stage")),
		Status:      models.ProjectStatus(getString(hitMap, "status")),
	}

	// Parse numeric fields
	if capacity, ok := hitMap["capacity_kw"].(float64); ok {
		project.CapacityKw = &capacity
	}

	return project
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// GetFacets retrieves facet distribution for specified fields
func (s *SearchClient) GetFacets(facets []string) (map[string]interface{}, error) {
	searchRes, err := s.client.Index(s.index).Search("", &meilisearch.SearchRequest{
		Limit:  0,
		Facets: facets,
	})
	if err != nil {
		return nil, err
	}

	if searchRes.FacetDistribution != nil {
		if facetMap, ok := searchRes.FacetDistribution.(map[string]interface{}); ok {
			return facetMap, nil
		}
	}
	return map[string]interface{}{}, nil
}
