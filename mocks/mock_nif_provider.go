package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNIFProvider is a mock implementation of port.NIFProvider.
type MockNIFProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockNIFProvider) Name() string {
	return m.ProviderName
}

func (m *MockNIFProvider) LookupName(ctx context.Context, nif string) (string, error) {
	args := m.Called(ctx, nif)
	return args.String(0), args.Error(1)
}

// MockNIFLookup is a mock implementation of port.NIFLookup.
type MockNIFLookup struct {
	mock.Mock
}

func (m *MockNIFLookup) Lookup(ctx context.Context, nif string) (string, string, error) {
	args := m.Called(ctx, nif)
	return args.String(0), args.String(1), args.Error(2)
}
