package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakwood-trust/safeguard-api/internal/service"
	"github.com/oakwood-trust/safeguard-api/pkg/response"
)

// NotificationHandler exposes the staff notification endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Param unviewed query bool false "Only unviewed notifications"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	unviewedOnly := c.Query("unviewed") == "true"
	records, err := h.notifications.ListForUser(c.Request.Context(), claimsFromContext(c), unviewedOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// MarkViewed godoc
// @Summary Mark a notification as viewed
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/viewed [post]
func (h *NotificationHandler) MarkViewed(c *gin.Context) {
	record, err := h.notifications.MarkViewed(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
