package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"despesify/internal/service"
)

// OCRTextRequest is the body of POST /ocr/text.
type OCRTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// OCRHandler handles receipt OCR endpoints.
type OCRHandler struct {
	extraction service.ExtractionService
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(extraction service.ExtractionService) *OCRHandler {
	return &OCRHandler{extraction: extraction}
}

// Upload handles POST /api/v1/ocr
// @Summary Extract expense fields from a receipt
// @Accept multipart/form-data
// @Param file formData file true "Receipt (PDF, JPG, or PNG)"
// @Router /ocr [post]
func (h *OCRHandler) Upload(c *gin.Context) {
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

	out, err := h.extraction.ExtractFromFile(c.Request.Context(), in)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"ocr_data": out.Fields.Response(),
		"engine":   out.Engine,
		"pages":    out.Pages,
	})
}

// Text handles POST /api/v1/ocr/text for text recognized on the client.
func (h *OCRHandler) Text(c *gin.Context) {
	var req OCRTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	fields := h.extraction.ExtractFromOCRText(req.Text)
	RespondOK(c, gin.H{"ocr_data": fields.Response()})
}
