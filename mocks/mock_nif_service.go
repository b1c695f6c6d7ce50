package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"despesify/internal/domain"
	"despesify/internal/service"
)

// MockNIFService is a mock implementation of service.NIFService.
type MockNIFService struct {
	mock.Mock
}

func (m *MockNIFService) Lookup(ctx context.Context, nif string) (*domain.NIFResolution, error) {
	args := m.Called(ctx, nif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NIFResolution), args.Error(1)
}

func (m *MockNIFService) Correct(ctx context.Context, input service.CorrectNIFInput) (*domain.NIFCacheEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NIFCacheEntry), args.Error(1)
}

func (m *MockNIFService) List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.NIFCacheEntry), args.Int(1), args.Error(2)
}

// ExportCSV writes the first Return value, when it is a string, to w.
func (m *MockNIFService) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if body, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}
