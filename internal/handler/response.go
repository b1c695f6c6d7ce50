package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"despesify/internal/atqr"
	"despesify/internal/domain"
	"despesify/internal/logger"
	"despesify/internal/middleware"
	"despesify/internal/taxid"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var payloadErr *atqr.PayloadError
	var rateErr *taxid.RateLimitError

	switch {
	case errors.As(err, &payloadErr):
		return http.StatusBadRequest, "MALFORMED_QR_PAYLOAD", payloadErr.Error()
	case errors.Is(err, domain.ErrMalformedPayload):
		return http.StatusBadRequest, "MALFORMED_QR_PAYLOAD", "malformed QR payload"
	case errors.Is(err, domain.ErrQRCodeNotFound):
		return http.StatusBadRequest, "QR_CODE_NOT_FOUND", "no QR code found in image"
	case errors.Is(err, domain.ErrInvalidNIF):
		return http.StatusBadRequest, "INVALID_NIF", "NIF must have exactly 9 digits"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", "invalid input"
	case errors.Is(err, domain.ErrNIFNotFound):
		return http.StatusNotFound, "NIF_NOT_FOUND", "no company found for this NIF"
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests, "LOOKUP_RATE_LIMITED", "NIF lookup provider is rate limited; retry later"
	case errors.Is(err, domain.ErrLookupConfiguration):
		return http.StatusInternalServerError, "LOOKUP_MISCONFIGURED", "NIF lookup is misconfigured or unavailable"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrOCRFailed):
		return http.StatusUnprocessableEntity, "OCR_FAILED", "could not process file"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)

	l := requestLogger(c)
	switch {
	case status >= 500:
		l.Error().Err(err).Str("code", code).Msg("internal error")
	case status == http.StatusUnprocessableEntity || status == http.StatusTooManyRequests:
		l.Warn().Err(err).Str("code", code).Msg("request failed")
	}

	var rateErr *taxid.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
	}
	RespondError(c, status, code, msg)
}

func requestLogger(c *gin.Context) zerolog.Logger {
	return logger.WithRequestID(c.GetString(middleware.ContextKeyRequestID))
}

// parsePagination reads offset and limit query parameters.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
