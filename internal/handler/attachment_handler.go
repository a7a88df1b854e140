package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oakwood-trust/safeguard-api/internal/service"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
	"github.com/oakwood-trust/safeguard-api/pkg/response"
)

// AttachmentHandler manages evidence files for incidents.
type AttachmentHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload godoc
// @Summary Upload an evidence file
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Incident ID"
// @Param file formData file true "Evidence file"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /incidents/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	res, err := h.attachments.Upload(
		c.Request.Context(),
		c.Param("id"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
		claimsFromContext(c),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// SignedURL godoc
// @Summary Issue a fresh signed download URL for an attachment
// @Tags Attachments
// @Produce json
// @Param id path int true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{id}/url [get]
func (h *AttachmentHandler) SignedURL(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attachment id must be a positive number"))
		return
	}

	url, err := h.attachments.SignedURL(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"download_url": url}, nil)
}

// Download godoc
// @Summary Download an attachment via a signed token
// @Tags Attachments
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /downloads/attachments [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, attachment, err := h.attachments.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
	c.Header("Content-Type", attachment.MimeType)
	http.ServeContent(c.Writer, c.Request, attachment.FileName, attachment.CreatedAt, file)
}
