package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"despesify/internal/csvexport"
	"despesify/internal/middleware"
	"despesify/internal/service"
)

// NIFLookupRequest is the body of POST /nif-lookup.
type NIFLookupRequest struct {
	NIF string `json:"nif" binding:"required"`
}

// NIFHandler handles tax-ID lookup and cache endpoints.
type NIFHandler struct {
	nifService service.NIFService
	now        func() time.Time
}

// NewNIFHandler creates a new NIFHandler.
func NewNIFHandler(nifService service.NIFService) *NIFHandler {
	return &NIFHandler{nifService: nifService, now: time.Now}
}

// Lookup handles POST /api/v1/nif-lookup
// @Summary Resolve a Portuguese NIF to a company name
// @Failure 400 {object} APIResponse "Invalid NIF"
// @Failure 404 {object} APIResponse "NIF not found"
// @Failure 500 {object} APIResponse "Lookup misconfigured"
// @Router /nif-lookup [post]
func (h *NIFHandler) Lookup(c *gin.Context) {
	var req NIFLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	res, err := h.nifService.Lookup(c.Request.Context(), req.NIF)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Correct handles PUT /api/v1/nif-lookup
// @Summary Store a user-corrected company name and category for a NIF
// @Router /nif-lookup [put]
func (h *NIFHandler) Correct(c *gin.Context) {
	var input service.CorrectNIFInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	entry, err := h.nifService.Correct(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	l := requestLogger(c)
	ev := l.Info().Str("nif", entry.NIF)
	if uid, err := middleware.GetUserID(c); err == nil {
		ev = ev.Str("user_id", uid.String())
	}
	ev.Msg("nif correction stored")

	RespondOK(c, entry)
}

// List handles GET /api/v1/nif-cache
func (h *NIFHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	entries, total, err := h.nifService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Export handles GET /api/v1/nif-cache/export
// @Summary Download the NIF cache as CSV
// @Produce text/csv
// @Router /nif-cache/export [get]
func (h *NIFHandler) Export(c *gin.Context) {
	filename := csvexport.BuildFilename("nif-cache", h.now())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := h.nifService.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Header("Content-Type", "")
			c.Header("Content-Disposition", "")
			HandleError(c, err)
			return
		}
		l := requestLogger(c)
		l.Error().Err(err).Msg("nif cache export aborted mid-stream")
	}
}
