package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"jurix-backend/models"
	"jurix-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NormaHandler handles HTTP requests for normas and processing jobs
type NormaHandler struct {
	normaService    *service.NormaService
	pipelineService *service.PipelineService
}

// NewNormaHandler creates a new norma handler
func NewNormaHandler(normaService *service.NormaService, pipelineService *service.PipelineService) *NormaHandler {
	return &NormaHandler{
		normaService:    normaService,
		pipelineService: pipelineService,
	}
}

// CreateNormaRequest represents the request body for registering a norma
type CreateNormaRequest struct {
	Tipo           string `json:"tipo" binding:"required"`
	Numero         string `json:"numero" binding:"required"`
	Ano            int    `json:"ano" binding:"required"`
	Ementa         string `json:"ementa"`
	TextoOriginal  string `json:"texto_original"`
	DataPublicacao string `json:"data_publicacao"`
	DataVigencia   string `json:"data_vigencia"`
}

// CreateNorma handles POST /api/normas
func (h *NormaHandler) CreateNorma(c *gin.Context) {
	var req CreateNormaRequest
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

	serviceReq := service.CreateNormaRequest{
		Tipo:          req.Tipo,
		Numero:        req.Numero,
		Ano:           req.Ano,
		Ementa:        req.Ementa,
		TextoOriginal: req.TextoOriginal,
	}

	if req.DataPublicacao != "" {
		t, err := time.Parse("2006-01-02", req.DataPublicacao)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "data_publicacao must be YYYY-MM-DD",
				},
			})
			return
		}
		serviceReq.DataPublicacao = &t
	}
	if req.DataVigencia != "" {
		t, err := time.Parse("2006-01-02", req.DataVigencia)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "data_vigencia must be YYYY-MM-DD",
				},
			})
			return
		}
		serviceReq.DataVigencia = &t
	}

	result, err := h.normaService.CreateNorma(c.Request.Context(), serviceReq)
	if err != nil {
		switch err {
		case service.ErrInvalidNorma:
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_NORMA",
					"message": "tipo, numero and ano are required",
				},
			})
		case service.ErrDuplicateNorma:
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DUPLICATE_NORMA",
					"message": "a norma with this tipo, numero and ano already exists",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CREATE_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Norma,
	})
}

// GetNorma handles GET /api/normas/:id
func (h *NormaHandler) GetNorma(c *gin.Context) {
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

	result, err := h.normaService.GetNorma(c.Request.Context(), service.GetNormaRequest{ID: id})
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"norma":            result.Norma,
			"dispositivos":     result.Dispositivos,
			"eventos":          result.Eventos,
			"in_vacatio_legis": result.InVacatioLegis,
		},
	})
}

// ListNormas handles GET /api/normas
func (h *NormaHandler) ListNormas(c *gin.Context) {
	req := service.ListNormasRequest{
		Tipo: c.Query("tipo"),
	}

	if anoStr := c.Query("ano"); anoStr != "" {
		ano, err := strconv.Atoi(anoStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ANO",
					"message": "ano must be an integer",
				},
			})
			return
		}
		req.Ano = ano
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.NormaStatus(statusStr)
		req.Status = &status
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			req.Offset = offset
		}
	}

	result, err := h.normaService.ListNormas(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Normas,
	})
}

// ProcessNorma handles POST /api/normas/:id/process
func (h *NormaHandler) ProcessNorma(c *gin.Context) {
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

	var reqBody struct {
		Force bool `json:"force"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil && err != io.EOF {
		// JSON is optional, ignore binding errors if body is empty
	}

	serviceReq := service.StartProcessingRequest{
		NormaID: id,
		Force:   reqBody.Force,
	}

	// Create job (synchronous, fast)
	result, err := h.pipelineService.StartProcessing(c.Request.Context(), serviceReq)
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
		case service.ErrNormaHasNoText:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NO_TEXT",
					"message": "Norma has no original text to process",
				},
			})
		case service.ErrJobAlreadyActive:
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "JOB_ACTIVE",
					"message": "A processing job is already running for this norma",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PROCESSING_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.pipelineService.ProcessNorma(bgCtx, result.JobID); err != nil {
			// Error is stored in job.ErrorMessage; clients poll status
			log.Printf("Processing job %s failed: %v", result.JobID, err)
			return
		}
		// Keep downstream consolidated texts current
		if err := h.pipelineService.ReconsolidateTargets(bgCtx, id); err != nil {
			log.Printf("Warning: Reconsolidation after job %s failed: %v", result.JobID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Processing job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *NormaHandler) GetJobStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	result, err := h.pipelineService.GetJobStatus(c.Request.Context(), service.GetJobStatusRequest{JobID: id})
	if err != nil {
		if err == service.ErrJobNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Processing job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}
