package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthInfo is the wiring reported by the health endpoints, so operators can
// see which cache backend and lookup chain an instance runs with.
type HealthInfo struct {
	DBDriver       string   `json:"db_driver"`
	NIFProviders   []string `json:"nif_providers"`
	OCREngine      string   `json:"ocr_engine"`
	QRAmountPolicy string   `json:"qr_amount_policy"`
}

type healthStatus struct {
	Status string `json:"status"`
	HealthInfo
	Error string `json:"error,omitempty"`
}

// HealthHandler serves liveness and NIF cache readiness.
type HealthHandler struct {
	cache Pinger
	info  HealthInfo
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cache Pinger, info HealthInfo) *HealthHandler {
	if info.NIFProviders == nil {
		info.NIFProviders = []string{}
	}
	return &HealthHandler{cache: cache, info: info}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthStatus{Status: "ok", HealthInfo: h.info})
}

// Readiness handles GET /readyz. Lookups cannot be cached or corrected
// without the NIF cache, so an unreachable database means not ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.cache.PingContext(ctx); err != nil {
		l := requestLogger(c)
		l.Warn().Err(err).Str("db_driver", h.info.DBDriver).Msg("nif cache not reachable")
		c.JSON(http.StatusServiceUnavailable, healthStatus{
			Status:     "unavailable",
			HealthInfo: h.info,
			Error:      "nif cache database not reachable",
		})
		return
	}
	c.JSON(http.StatusOK, healthStatus{Status: "ok", HealthInfo: h.info})
}
