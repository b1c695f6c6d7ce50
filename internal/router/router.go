package router

import (
	"github.com/gin-gonic/gin"

	"despesify/internal/handler"
	"despesify/internal/middleware"
	"despesify/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health *handler.HealthHandler
	OCR    *handler.OCRHandler
	QR     *handler.QRHandler
	NIF    *handler.NIFHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, allowedOrigins []string, maxUploadBytes int64, h Handlers) *gin.Engine {
	r := gin.New()
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(authSvc))

	v1.POST("/ocr", h.OCR.Upload)
	v1.POST("/ocr/text", h.OCR.Text)

	v1.POST("/qr", h.QR.Extract)
	v1.POST("/qr/render", h.QR.Render)

	v1.POST("/nif-lookup", h.NIF.Lookup)
	v1.PUT("/nif-lookup", h.NIF.Correct)
	v1.GET("/nif-cache", h.NIF.List)
	v1.GET("/nif-cache/export", h.NIF.Export)

	return r
}
