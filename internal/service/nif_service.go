package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"despesify/internal/csvexport"
	"despesify/internal/domain"
	"despesify/internal/logger"
	"despesify/internal/port"
	"despesify/internal/taxid"
)

// DefaultLookupTimeout bounds a provider lookup when no timeout is configured.
const DefaultLookupTimeout = 15 * time.Second

// CorrectNIFInput is the DTO for a manual cache correction.
type CorrectNIFInput struct {
	NIF         string `json:"nif" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
	CategoryID  *int64 `json:"category_id"`
}

// NIFService resolves tax IDs to companies: cache first, then providers,
// writing successful provider answers back to the cache.
type NIFService interface {
	Lookup(ctx context.Context, nif string) (*domain.NIFResolution, error)
	Correct(ctx context.Context, input CorrectNIFInput) (*domain.NIFCacheEntry, error)
	List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type nifService struct {
	cache   port.NIFCacheRepository
	lookup  port.NIFLookup
	timeout time.Duration
	log     zerolog.Logger
}

// NewNIFService creates a new NIFService implementation. lookup may be nil,
// in which case cache misses report a configuration error.
func NewNIFService(cache port.NIFCacheRepository, lookup port.NIFLookup, timeout time.Duration) NIFService {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &nifService{
		cache:   cache,
		lookup:  lookup,
		timeout: timeout,
		log:     logger.WithComponent("service.nif"),
	}
}

func (s *nifService) Lookup(ctx context.Context, raw string) (*domain.NIFResolution, error) {
	nif, err := taxid.Normalize(raw)
	if err != nil {
		return nil, err
	}

	entry, err := s.cache.Get(ctx, nif)
	switch {
	case err == nil:
		s.log.Debug().Str("nif", nif).Msg("cache hit")
		return &domain.NIFResolution{
			NIF:         nif,
			CompanyName: taxid.CleanCompanyName(entry.CompanyName),
			CategoryID:  entry.CategoryID,
			Source:      domain.SourceCache,
		}, nil
	case !errors.Is(err, domain.ErrNotFound):
		// A broken cache should not block resolution.
		s.log.Warn().Err(err).Str("nif", nif).Msg("cache read failed, querying providers")
	}

	if s.lookup == nil {
		return nil, taxid.NewProviderError("taxid", errors.New("no NIF providers configured"))
	}

	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name, source, err := s.lookup.Lookup(lctx, nif)
	if err != nil {
		return nil, fmt.Errorf("nifService.Lookup: %w", err)
	}
	name = taxid.CleanCompanyName(name)
	if name == "" {
		return nil, domain.ErrNIFNotFound
	}

	if err := s.cache.Insert(ctx, &domain.NIFCacheEntry{NIF: nif, CompanyName: name}); err != nil {
		s.log.Warn().Err(err).Str("nif", nif).Msg("failed to write lookup result to cache")
	} else {
		s.log.Info().Str("nif", nif).Str("source", source).Msg("cached provider result")
	}

	return &domain.NIFResolution{NIF: nif, CompanyName: name, Source: source}, nil
}

func (s *nifService) Correct(ctx context.Context, input CorrectNIFInput) (*domain.NIFCacheEntry, error) {
	nif, err := taxid.Normalize(input.NIF)
	if err != nil {
		return nil, err
	}
	name := taxid.CleanCompanyName(input.CompanyName)
	if name == "" {
		return nil, fmt.Errorf("%w: company name is required", domain.ErrInvalidInput)
	}
	category := input.CategoryID
	if category != nil && *category <= 0 {
		category = nil
	}

	entry := &domain.NIFCacheEntry{NIF: nif, CompanyName: name, CategoryID: category}
	if err := s.cache.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("nifService.Correct: %w", err)
	}
	s.log.Info().Str("nif", nif).Interface("category_id", category).Msg("cache entry corrected")

	stored, err := s.cache.Get(ctx, nif)
	if err != nil {
		return nil, fmt.Errorf("nifService.Correct: reading back: %w", err)
	}
	return stored, nil
}

func (s *nifService) List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error) {
	return s.cache.List(ctx, offset, limit)
}

func (s *nifService) ExportCSV(ctx context.Context, w io.Writer) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("nifService.ExportCSV: %w", err)
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("nifService.ExportCSV: %w", err)
	}

	rows := 0
	err := s.cache.ForEach(ctx, func(e domain.NIFCacheEntry) error {
		rows++
		return cw.WriteEntry(&e)
	})
	cw.Flush()
	if err != nil {
		return fmt.Errorf("nifService.ExportCSV: %w", err)
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("nifService.ExportCSV: %w", err)
	}
	s.log.Debug().Int("rows", rows).Msg("exported NIF cache")
	return nil
}
