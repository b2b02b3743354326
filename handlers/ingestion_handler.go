package handlers

import (
	"net/http"

	"jurix-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IngestionHandler handles HTTP requests for SAPL ingestion
type IngestionHandler struct {
	ingestionService *service.IngestionService
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(ingestionService *service.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestionService: ingestionService}
}

// IngestRequest represents the request body for triggering an ingestion
type IngestRequest struct {
	MaxNormas int    `json:"max_normas"`
	Tipo      string `json:"tipo"`
	Ano       int    `json:"ano"`
	PageSize  int    `json:"page_size"`
}

// Ingest handles POST /api/ingestion/sapl
func (h *IngestionHandler) Ingest(c *gin.Context) {
	var req IngestRequest
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

	stats, err := h.ingestionService.Ingest(c.Request.Context(), service.IngestRequest{
		MaxNormas: req.MaxNormas,
		Tipo:      req.Tipo,
		Ano:       req.Ano,
		PageSize:  req.PageSize,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INGESTION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// DownloadPDF handles POST /api/normas/:id/pdf
func (h *IngestionHandler) DownloadPDF(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid norma ID format",
			},
		})
		return
	}

	path, err := h.ingestionService.DownloadPDF(c.Request.Context(), id)
	if err != nil {
		switch err {
		case service.ErrNormaNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Norma not found",
				},
			})
		case service.ErrNormaHasNoPDF:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NO_PDF_URL",
					"message": "Norma has no PDF URL",
				},
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DOWNLOAD_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"pdf_path": path,
		},
	})
}
