package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakwood-trust/safeguard-api/internal/service"
	"github.com/oakwood-trust/safeguard-api/pkg/response"
)

// LookupHandler serves the reference lists backing the incident form.
type LookupHandler struct {
	lookups *service.LookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookups *service.LookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

// Categories godoc
// @Summary List incident categories
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/categories [get]
func (h *LookupHandler) Categories(c *gin.Context) {
	items, err := h.lookups.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Locations godoc
// @Summary List incident locations
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/locations [get]
func (h *LookupHandler) Locations(c *gin.Context) {
	items, err := h.lookups.Locations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Statuses godoc
// @Summary List incident statuses
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/statuses [get]
func (h *LookupHandler) Statuses(c *gin.Context) {
	items, err := h.lookups.Statuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
