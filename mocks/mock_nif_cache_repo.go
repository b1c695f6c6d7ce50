package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"despesify/internal/domain"
)

// MockNIFCacheRepo is a mock implementation of port.NIFCacheRepository.
type MockNIFCacheRepo struct {
	mock.Mock
}

func (m *MockNIFCacheRepo) Get(ctx context.Context, nif string) (*domain.NIFCacheEntry, error) {
	args := m.Called(ctx, nif)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NIFCacheEntry), args.Error(1)
}

func (m *MockNIFCacheRepo) Insert(ctx context.Context, entry *domain.NIFCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockNIFCacheRepo) Upsert(ctx context.Context, entry *domain.NIFCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockNIFCacheRepo) List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.NIFCacheEntry), args.Int(1), args.Error(2)
}

// ForEach calls fn for every entry passed as the first Return value.
func (m *MockNIFCacheRepo) ForEach(ctx context.Context, fn func(domain.NIFCacheEntry) error) error {
	args := m.Called(ctx, fn)
	if entries, ok := args.Get(0).([]domain.NIFCacheEntry); ok {
		for _, e := range entries {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}
