package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"despesify/internal/domain"
	"despesify/internal/port"
)

const nifCacheColumns = `nif, company_name, category_id, created_at, updated_at`

type nifCacheRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewNIFCacheRepo creates a new sqlx-backed NIFCacheRepository.
func NewNIFCacheRepo(db *sqlx.DB) port.NIFCacheRepository {
	return &nifCacheRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *nifCacheRepo) Get(ctx context.Context, nif string) (*domain.NIFCacheEntry, error) {
	var entry domain.NIFCacheEntry
	err := r.db.GetContext(ctx, &entry,
		r.db.Rebind(`SELECT `+nifCacheColumns+` FROM nif_cache WHERE nif = ?`), nif)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("nifCacheRepo.Get: %w", err)
	}
	return &entry, nil
}

func (r *nifCacheRepo) Insert(ctx context.Context, entry *domain.NIFCacheEntry) error {
	now := r.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO nif_cache (`+nifCacheColumns+`)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (nif) DO NOTHING`),
		entry.NIF, entry.CompanyName, entry.CategoryID, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("nifCacheRepo.Insert: %w", err)
	}
	return nil
}

func (r *nifCacheRepo) Upsert(ctx context.Context, entry *domain.NIFCacheEntry) error {
	now := r.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO nif_cache (`+nifCacheColumns+`)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (nif) DO UPDATE SET
		   company_name = excluded.company_name,
		   category_id = excluded.category_id,
		   updated_at = excluded.updated_at`),
		entry.NIF, entry.CompanyName, entry.CategoryID, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("nifCacheRepo.Upsert: %w", err)
	}
	return nil
}

func (r *nifCacheRepo) List(ctx context.Context, offset, limit int) ([]domain.NIFCacheEntry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM nif_cache`); err != nil {
		return nil, 0, fmt.Errorf("nifCacheRepo.List count: %w", err)
	}

	var entries []domain.NIFCacheEntry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(
		`SELECT `+nifCacheColumns+` FROM nif_cache
		 ORDER BY nif
		 LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("nifCacheRepo.List: %w", err)
	}
	return entries, total, nil
}

func (r *nifCacheRepo) ForEach(ctx context.Context, fn func(domain.NIFCacheEntry) error) error {
	rows, err := r.db.QueryxContext(ctx, `SELECT `+nifCacheColumns+` FROM nif_cache ORDER BY nif`)
	if err != nil {
		return fmt.Errorf("nifCacheRepo.ForEach: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var entry domain.NIFCacheEntry
		if err := rows.StructScan(&entry); err != nil {
			return fmt.Errorf("nifCacheRepo.ForEach scan: %w", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return rows.Err()
}
