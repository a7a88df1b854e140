package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/middleware"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
	"github.com/oakwood-trust/safeguard-api/pkg/response"
)

// incidentService abstracts the incident use cases for HTTP wiring.
type incidentService interface {
	Create(ctx context.Context, req dto.CreateIncidentRequest) (*dto.CreateIncidentResponse, error)
	Get(ctx context.Context, rawID string, claims *models.JWTClaims) (*dto.IncidentAggregate, []string, error)
	List(ctx context.Context, filter models.IncidentFilter, claims *models.JWTClaims) ([]dto.IncidentDetail, *models.Pagination, error)
}

// IncidentHandler exposes the incident reporting endpoints.
type IncidentHandler struct {
	incidents incidentService
}

// NewIncidentHandler constructs IncidentHandler.
func NewIncidentHandler(incidents incidentService) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// Create godoc
// @Summary Submit an incident report
// @Description Persists the incident with linked students, body map markers and staff notifications in one transaction
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.CreateIncidentRequest true "Incident payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	var req dto.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid incident payload"))
		return
	}

	res, err := h.incidents.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Get godoc
// @Summary Get the full incident aggregate
// @Description Returns the incident with students, emergency contacts, attachments, body map and notifications. Sections that fail to load are listed in meta.degraded_sections.
// @Tags Incidents
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /incidents/{id} [get]
func (h *IncidentHandler) Get(c *gin.Context) {
	agg, degraded, err := h.incidents.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetDegradedSections(c, degraded)
	response.JSON(c, http.StatusOK, agg, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List incident reports
// @Tags Incidents
// @Produce json
// @Param category_id query int false "Filter by category"
// @Param status_id query int false "Filter by status"
// @Param student_id query string false "Filter by involved student"
// @Param urgent query bool false "Only urgent incidents"
// @Param date_from query string false "Earliest incident date (YYYY-MM-DD)"
// @Param date_to query string false "Latest incident date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	var filter models.IncidentFilter
	if raw := c.Query("category_id"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.CategoryID = &v
		}
	}
	if raw := c.Query("status_id"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.StatusID = &v
		}
	}
	filter.StudentID = strings.TrimSpace(c.Query("student_id"))
	if raw := c.Query("urgent"); raw == "true" || raw == "false" {
		v := raw == "true"
		filter.Urgent = &v
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &t
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	incidents, pagination, err := h.incidents.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incidents, pagination)
}
