package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"jurix-backend/repository"
	"jurix-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PDFHandler serves archived source documents of normas
type PDFHandler struct {
	normaRepo *repository.NormaRepository
	store     storage.Storage
}

// NewPDFHandler creates a new PDF handler
func NewPDFHandler(normaRepo *repository.NormaRepository, store storage.Storage) *PDFHandler {
	return &PDFHandler{
		normaRepo: normaRepo,
		store:     store,
	}
}

// GetPDF handles GET /api/normas/:id/pdf
func (h *PDFHandler) GetPDF(c *gin.Context) {
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

	norma, err := h.normaRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Norma not found",
			},
		})
		return
	}

	if norma.PDFPath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_PDF",
				"message": "Norma has no archived PDF",
			},
		})
		return
	}

	reader, err := h.store.Get(c.Request.Context(), norma.PDFPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to retrieve PDF: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	filename := filepath.Base(norma.PDFPath)
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers already sent; nothing left to report to the client
		return
	}
}
