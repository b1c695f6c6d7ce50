package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"despesify/internal/domain"
	"despesify/internal/port"
	"despesify/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) ExtractFromOCRText(text string) domain.ExtractedInvoiceFields {
	args := m.Called(text)
	return args.Get(0).(domain.ExtractedInvoiceFields)
}

func (m *MockExtractionService) ExtractFromQRText(text string) (*domain.QRInvoiceRecord, error) {
	args := m.Called(text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QRInvoiceRecord), args.Error(1)
}

func (m *MockExtractionService) EnrichWithTaxID(ctx context.Context, draft *domain.ExpenseDraft, nif string) (*domain.ExpenseDraft, error) {
	args := m.Called(ctx, draft, nif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseDraft), args.Error(1)
}

func (m *MockExtractionService) BuildQRDraft(ctx context.Context, record *domain.QRInvoiceRecord) (*domain.ExpenseDraft, []string) {
	args := m.Called(ctx, record)
	var warnings []string
	if w, ok := args.Get(1).([]string); ok {
		warnings = w
	}
	return args.Get(0).(*domain.ExpenseDraft), warnings
}

func (m *MockExtractionService) ExtractFromFile(ctx context.Context, in port.FileInput) (*service.FileExtraction, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileExtraction), args.Error(1)
}

func (m *MockExtractionService) ExtractFromQRImage(ctx context.Context, in port.FileInput) (*service.QRExtraction, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QRExtraction), args.Error(1)
}
