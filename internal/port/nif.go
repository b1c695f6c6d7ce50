package port

import (
	"context"

	"despesify/internal/domain"
)

// NIFProvider resolves a normalized NIF to a company name using an external
// source. A definitive miss returns domain.ErrNIFNotFound.
type NIFProvider interface {
	Name() string
	LookupName(ctx context.Context, nif string) (string, error)
}

// NIFLookup resolves a NIF through one or more providers and reports which
// provider answered.
type NIFLookup interface {
	Lookup(ctx context.Context, nif string) (name, source string, err error)
}

// NIFCacheRepository defines the contract for NIF cache persistence.
type NIFCacheRepository interface {
	Get(ctx context.Context, nif string) (*domain.NIFCacheEntry, error)
	// Insert stores a new entry and leaves an existing one untouched.
	Insert(ctx context.Context, entry *domain.NIFCacheEntry) error
	// Upsert stores or replaces the name and category of an entry.
	Upsert(ctx context.Context, entry *domain.NIFCacheEntry) error
	List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error)
	ForEach(ctx context.Context, fn func(domain.NIFCacheEntry) error) error
}
