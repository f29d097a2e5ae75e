package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskmind/taskmind/internal/service"
	"github.com/taskmind/taskmind/internal/vector"
)

// SearchHandler handles similarity search endpoints.
type SearchHandler struct {
	retrievalService *service.RetrievalService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - retrievalService: retrieval service instance.
//
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(retrievalService *service.RetrievalService) *SearchHandler {
	return &SearchHandler{
		retrievalService: retrievalService,
	}
}

// SearchRequest represents the similarity search API request.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Type  string `json:"type,omitempty"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResponse represents the similarity search API response.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []vector.SearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// Search handles POST /api/v1/search.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Type != "" && !service.ValidEntityType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid type %q: must be one of %v", req.Type, service.EntityTypes),
		})
		return
	}

	results, err := h.retrievalService.Search(c.Request.Context(), req.Query, req.Type, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	})
}

// SearchGet handles GET /api/v1/search for simple search queries.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *SearchHandler) SearchGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'q' is required",
		})
		return
	}

	req := SearchRequest{
		Query: query,
		Type:  c.Query("type"),
	}

	if topK := c.Query("top_k"); topK != "" {
		var topKInt int
		if _, err := fmt.Sscanf(topK, "%d", &topKInt); err == nil {
			req.TopK = topKInt
		}
	}

	if req.Type != "" && !service.ValidEntityType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid type %q: must be one of %v", req.Type, service.EntityTypes),
		})
		return
	}

	results, err := h.retrievalService.Search(c.Request.Context(), req.Query, req.Type, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	})
}
