// Package app wires configuration into the services shared by the HTTP
// server and the command-line tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/logger"
	"despesify/internal/ocr"
	"despesify/internal/repository/sqlstore"
	"despesify/internal/service"
	"despesify/internal/taxid"

	// NIF providers register themselves with the taxid registry.
	_ "despesify/internal/taxid/nifpt"
	_ "despesify/internal/taxid/registry"
)

// App holds the wired collaborators.
type App struct {
	DB         *sqlx.DB
	Chain      *taxid.Chain
	Recognizer *ocr.Router
	NIF        service.NIFService
	Extraction service.ExtractionService
	Auth       service.AuthService
}

// New connects to the cache database and builds the service graph. SQLite
// databases are migrated on open; Postgres is migrated by cmd/migrate.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.WithComponent("app")

	db, err := sqlstore.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.DB.Driver == "sqlite" {
		if err := sqlstore.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite cache: %w", err)
		}
	}

	chain, err := taxid.NewChainFromConfig(&cfg.NIF)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to build NIF provider chain: %w", err)
	}

	recognizer, err := ocr.NewRouterFromConfig(ctx, &cfg.OCR, nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}
	decoder := ocr.NewZbarDecoder(&cfg.QR, nil)

	nifSvc := service.NewNIFService(sqlstore.NewNIFCacheRepo(db), chain, cfg.NIF.Timeout)
	extraction := service.NewExtractionService(nifSvc, recognizer, decoder, service.ExtractionConfig{
		AmountPolicy:     domain.AmountPolicy(cfg.QR.AmountPolicy),
		MaxFileSizeBytes: cfg.OCR.MaxFileSizeBytes(),
	})

	log.Info().
		Str("db_driver", cfg.DB.Driver).
		Strs("nif_providers", chain.Names()).
		Str("ocr_engine", cfg.OCR.Engine).
		Str("amount_policy", cfg.QR.AmountPolicy).
		Msg("application wired")

	return &App{
		DB:         db,
		Chain:      chain,
		Recognizer: recognizer,
		NIF:        nifSvc,
		Extraction: extraction,
		Auth:       service.NewAuthService(cfg.Auth),
	}, nil
}

// Close releases the OCR engine and the database pool.
func (a *App) Close() error {
	return errors.Join(a.Recognizer.Close(), a.DB.Close())
}
