package api

import (
	"github.com/starford/uruz/internal/matservice"
	"github.com/starford/uruz/internal/models"
)

// CreateMaterialRequest is the request body for creating a material. A nil
// material creates an empty record template.
type CreateMaterialRequest struct {
	Path     string           `json:"path" example:"steels/12x18n10t.json" validate:"required"`
	Material *models.Material `json:"material"`
}

// UpdateMaterialRequest is the request body for committing an edited record.
type UpdateMaterialRequest struct {
	Material *models.Material `json:"material" validate:"required"`
}

// MatchRequest is the request body for composition matching: target
// percentages keyed by element symbol, with an optional area filter.
type MatchRequest struct {
	Targets map[string]float64 `json:"targets" validate:"required"`
	Area    string             `json:"area,omitempty"`
}

// MaterialDetail is the full material response type (aliased from the domain layer).
type MaterialDetail = matservice.MaterialDetail

// MaterialListItem is a lightweight item in a list response (aliased from the domain layer).
type MaterialListItem = matservice.MaterialListItem

// MaterialListResponse wraps paginated material listings.
type MaterialListResponse struct {
	Materials []MaterialListItem `json:"materials" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path        string `json:"path" example:"steels/12x18n10t.json" validate:"required"`
	DisplayName string `json:"display_name" example:"12Х18Н10Т (Х18Н10Т)" validate:"required"`
	Snippet     string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// TableResponse wraps batch property-table rows.
type TableResponse struct {
	Rows []matservice.TableRow `json:"rows" validate:"required"`
}

// MatchResponse wraps ranked composition-match results.
type MatchResponse struct {
	Matches []matservice.MatchItem `json:"matches" validate:"required"`
}

// AreasResponse wraps the derived application-area set.
type AreasResponse struct {
	Areas []string `json:"areas" validate:"required"`
}

// SourcesResponse wraps the aggregated source-name list.
type SourcesResponse struct {
	Sources []string `json:"sources" validate:"required"`
}
