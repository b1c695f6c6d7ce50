package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"despesify/internal/atqr"
	"despesify/internal/domain"
	"despesify/internal/handler"
	"despesify/internal/port"
	"despesify/internal/service"
	"despesify/mocks"
)

const qrPayload = "A:123456789*B:999999990*C:PT*D:FT*E:N*F:20240315*G:FT A/123*H:JFBX4K2P-123" +
	"*I1:PT*I2:100.00*I3:6.00*I4:RED*I1:PT*I2:50.00*I3:11.50*I4:NOR*Q:ab1C*R:2345"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func multipartRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write(content)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestOCRHandler_Upload_Success(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	amount := decimal.RequireFromString("12.30")
	svc.On("ExtractFromFile", mock.Anything, mock.MatchedBy(func(in port.FileInput) bool {
		return in.FileType == domain.FileTypePNG && in.Filename == "talao.png"
	})).Return(&service.FileExtraction{
		Fields: domain.ExtractedInvoiceFields{Amount: &amount, Merchant: "CAFE", RawText: "CAFE\n12,30"},
		Engine: "tesseract",
		Pages:  1,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/ocr", "talao.png", pngBytes)

	handler.NewOCRHandler(svc).Upload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	ocrData := data["ocr_data"].(map[string]interface{})
	assert.Equal(t, "12.30", ocrData["amount"])
	assert.Equal(t, "CAFE", ocrData["merchant"])
	assert.Equal(t, "", ocrData["vat"])
	assert.Equal(t, "tesseract", data["engine"])
	svc.AssertExpectations(t)
}

func TestOCRHandler_Upload_NoFile(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/ocr", http.NoBody)

	handler.NewOCRHandler(svc).Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w).Error.Code)
}

func TestOCRHandler_Upload_RejectsDisguisedFile(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/ocr", "talao.png", []byte("just some text"))

	handler.NewOCRHandler(svc).Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode(t, w).Error.Code)
	svc.AssertNotCalled(t, "ExtractFromFile", mock.Anything, mock.Anything)
}

func TestOCRHandler_Upload_OCRFailure(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("ExtractFromFile", mock.Anything, mock.Anything).Return(nil, domain.ErrOCRFailed)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/ocr", "talao.png", pngBytes)

	handler.NewOCRHandler(svc).Upload(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestOCRHandler_Text(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("ExtractFromOCRText", "TOTAL 5,00").Return(domain.ExtractedInvoiceFields{RawText: "TOTAL 5,00", Date: "2024-01-02"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/ocr/text", gin.H{"text": "TOTAL 5,00"})

	handler.NewOCRHandler(svc).Text(c)

	assert.Equal(t, http.StatusOK, w.Code)
	ocrData := decode(t, w).Data.(map[string]interface{})["ocr_data"].(map[string]interface{})
	assert.Equal(t, "2024-01-02", ocrData["date"])
}

func TestQRHandler_Extract_JSON(t *testing.T) {
	rec, err := atqr.Parse(qrPayload)
	require.NoError(t, err)
	amount := rec.GrandTotal

	svc := new(mocks.MockExtractionService)
	svc.On("ExtractFromQRText", qrPayload).Return(rec, nil)
	svc.On("BuildQRDraft", mock.Anything, rec).Return(&domain.ExpenseDraft{Description: "Empresa", Amount: &amount}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/qr", gin.H{"qr_text": qrPayload})

	handler.NewQRHandler(svc).Extract(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	draft := data["qr_data"].(map[string]interface{})
	assert.Equal(t, "Empresa", draft["description"])
	assert.Equal(t, "167.5", draft["amount"])
	assert.Equal(t, []interface{}{}, data["warnings"])
	assert.Equal(t, "123456789", data["record"].(map[string]interface{})["issuer_nif"])
}

func TestQRHandler_Extract_Malformed(t *testing.T) {
	_, parseErr := atqr.Parse("A:1")
	svc := new(mocks.MockExtractionService)
	svc.On("ExtractFromQRText", "A:1").Return(nil, parseErr)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/qr", gin.H{"qr_text": "A:1"})

	handler.NewQRHandler(svc).Extract(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "MALFORMED_QR_PAYLOAD", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "malformed QR payload")
}

func TestQRHandler_Extract_Image(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("ExtractFromQRImage", mock.Anything, mock.Anything).Return(nil, domain.ErrQRCodeNotFound).Once()
	svc.On("ExtractFromQRImage", mock.Anything, mock.Anything).Return(&service.QRExtraction{
		Payload: qrPayload, Draft: &domain.ExpenseDraft{Description: "Fatura FT A/123"},
	}, nil).Once()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/qr", "qr.png", pngBytes)
	handler.NewQRHandler(svc).Extract(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "QR_CODE_NOT_FOUND", decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = multipartRequest(t, "/api/v1/qr", "qr.png", pngBytes)
	handler.NewQRHandler(svc).Extract(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, qrPayload, data["payload"])
	assert.Equal(t, "Fatura FT A/123", data["qr_data"].(map[string]interface{})["description"])
}

func TestQRHandler_Render(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/qr/render", gin.H{"qr_text": qrPayload})
	handler.NewQRHandler(svc).Render(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/qr/render", gin.H{"qr_text": "nonsense"})
	handler.NewQRHandler(svc).Render(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler_Liveness(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", http.NoBody)

	info := handler.HealthInfo{DBDriver: "pgx", NIFProviders: []string{"nifpt", "registry"}, OCREngine: "tesseract", QRAmountPolicy: "gross"}
	handler.NewHealthHandler(pingFunc(func() error { return nil }), info).Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "pgx", body["db_driver"])
	assert.Equal(t, []interface{}{"nifpt", "registry"}, body["nif_providers"])
	assert.Equal(t, "gross", body["qr_amount_policy"])
	assert.NotContains(t, body, "error")
}

func TestHealthHandler_Readiness(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

	handler.NewHealthHandler(pingFunc(func() error { return nil }), handler.HealthInfo{DBDriver: "sqlite"}).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

	handler.NewHealthHandler(pingFunc(func() error { return assert.AnError }), handler.HealthInfo{DBDriver: "sqlite"}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "sqlite", body["db_driver"])
	assert.Equal(t, []interface{}{}, body["nif_providers"])
}
