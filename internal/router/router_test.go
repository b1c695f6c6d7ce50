package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"despesify/internal/domain"
	"despesify/internal/handler"
	"despesify/internal/router"
	"despesify/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func setup(auth *mocks.MockAuthService, nif *mocks.MockNIFService) *gin.Engine {
	extraction := new(mocks.MockExtractionService)
	return router.Setup(auth, []string{"http://localhost:3000"}, 1<<20, router.Handlers{
		Health: handler.NewHealthHandler(okPinger{}, handler.HealthInfo{DBDriver: "sqlite"}),
		OCR:    handler.NewOCRHandler(extraction),
		QR:     handler.NewQRHandler(extraction),
		NIF:    handler.NewNIFHandler(nif),
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	auth := new(mocks.MockAuthService)
	r := setup(auth, new(mocks.MockNIFService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	auth.AssertNotCalled(t, "Enabled")
}

func TestRouter_APIRequiresToken(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("Enabled").Return(true)
	r := setup(auth, new(mocks.MockNIFService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/nif-cache", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_NIFLookupRoute(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("Enabled").Return(false)
	nif := new(mocks.MockNIFService)
	nif.On("Lookup", mock.Anything, "503504564").Return(&domain.NIFResolution{NIF: "503504564", CompanyName: "A", Source: "cache"}, nil)
	r := setup(auth, nif)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/nif-lookup", strings.NewReader(`{"nif":"503504564"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"cache"`)
	nif.AssertExpectations(t)
}
