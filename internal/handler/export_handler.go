package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/service"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
	"github.com/oakwood-trust/safeguard-api/pkg/response"
)

// ExportHandler manages incident export jobs.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Queue an incident export
// @Description Renders the incident report to PDF or CSV in the background
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Param payload body dto.ExportRequest false "Export options"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /incidents/{id}/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
			return
		}
	}

	job, err := h.exports.Enqueue(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Get godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.GetJob(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a rendered export via a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /downloads/exports [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, contentType, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	name := filepath.Base(file.Name())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", contentType)
	c.File(file.Name())
}
