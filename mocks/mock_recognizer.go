package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"despesify/internal/port"
)

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, in port.FileInput) (*port.OCRResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}

// MockQRDecoder is a mock implementation of port.QRDecoder.
type MockQRDecoder struct {
	mock.Mock
}

func (m *MockQRDecoder) Decode(ctx context.Context, in port.FileInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}
