package handlers

import (
	"net/http"

	"jurix-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles semantic search and question answering over the
// consolidated corpus
type SearchHandler struct {
	ragService *service.RAGService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(ragService *service.RAGService) *SearchHandler {
	return &SearchHandler{ragService: ragService}
}

// SemanticSearchRequest represents the request body for a semantic search
type SemanticSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Tipo  string `json:"tipo"`
	Ano   int    `json:"ano"`
	Limit int    `json:"limit"`
}

// SemanticSearch handles POST /api/search/semantic
func (h *SearchHandler) SemanticSearch(c *gin.Context) {
	var req SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.ragService.Search(c.Request.Context(), service.SearchRequest{
		Query: req.Query,
		Tipo:  req.Tipo,
		Ano:   req.Ano,
		Limit: req.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Chunks,
	})
}

// AnswerRequest represents the request body for question answering
type AnswerRequest struct {
	Question string `json:"question" binding:"required"`
	Tipo     string `json:"tipo"`
	Ano      int    `json:"ano"`
}

// Answer handles POST /api/search/answer
func (h *SearchHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.ragService.Answer(c.Request.Context(), service.AnswerRequest{
		Question: req.Question,
		Tipo:     req.Tipo,
		Ano:      req.Ano,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANSWER_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"answer":  result.Answer,
			"sources": result.Sources,
		},
	})
}
