package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"despesify/internal/atqr"
	"despesify/internal/service"
)

// QRRequest is the JSON body of POST /qr and POST /qr/render.
type QRRequest struct {
	QRText string `json:"qr_text" binding:"required"`
}

// QRHandler handles AT invoice QR endpoints.
type QRHandler struct {
	extraction service.ExtractionService
	renderSize int
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(extraction service.ExtractionService) *QRHandler {
	return &QRHandler{extraction: extraction, renderSize: 256}
}

// Extract handles POST /api/v1/qr
// @Summary Build an expense draft from an AT invoice QR code
// @Description Accepts the decoded payload as JSON {qr_text} or a multipart image in "file".
// @Router /qr [post]
func (h *QRHandler) Extract(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.extractImage(c)
		return
	}

	var req QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	rec, err := h.extraction.ExtractFromQRText(req.QRText)
	if err != nil {
		HandleError(c, err)
		return
	}
	draft, warnings := h.extraction.BuildQRDraft(c.Request.Context(), rec)

	RespondOK(c, service.QRExtraction{
		Payload:  strings.TrimSpace(req.QRText),
		Record:   rec,
		Draft:    draft,
		Warnings: nonNil(warnings),
	})
}

func (h *QRHandler) extractImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	in, err := service.SniffUpload(header.Filename, header.Size, file)
	if err != nil {
		HandleError(c, err)
		return
	}

	out, err := h.extraction.ExtractFromQRImage(c.Request.Context(), in)
	if err != nil {
		HandleError(c, err)
		return
	}
	out.Warnings = nonNil(out.Warnings)
	RespondOK(c, out)
}

// Render handles POST /api/v1/qr/render. The payload is validated before
// it is drawn.
func (h *QRHandler) Render(c *gin.Context) {
	var req QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if _, err := atqr.Parse(req.QRText); err != nil {
		HandleError(c, err)
		return
	}
	png, err := atqr.RenderPNG(strings.TrimSpace(req.QRText), h.renderSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
